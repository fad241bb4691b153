package web

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/findit/pkg/camera"
	"github.com/teslashibe/findit/pkg/findit"
	"github.com/teslashibe/findit/pkg/hub"
	"github.com/teslashibe/findit/pkg/preview"
)

// maxThumbDim bounds the ?size parameter of /api/photo.
const maxThumbDim = 1024

// CaptureResponse is returned by POST /api/capture.
type CaptureResponse struct {
	CycleID string       `json:"cycle_id"`
	State   findit.State `json:"state"`
}

// FlashResponse is returned by POST /api/flash.
type FlashResponse struct {
	Flash camera.FlashMode `json:"flash"`
	Label string           `json:"label"`
}

func stateMessage(st findit.State) (hub.Message, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return hub.Message{}, err
	}
	return hub.NewJSONMessage(data), nil
}

// handleError renders errors as JSON.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// handleHealth reports liveness
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleState returns the current screen state
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.screen.State())
}

// handleCapture is the tap gesture: it starts a capture cycle.
func (s *Server) handleCapture(c *fiber.Ctx) error {
	id, err := s.screen.Tap(s.cycleCtx)
	if errors.Is(err, findit.ErrBusy) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "capture in progress",
			"state": s.screen.State(),
		})
	}
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(CaptureResponse{
		CycleID: id.String(),
		State:   s.screen.State(),
	})
}

// handleFlash toggles the flash mode
func (s *Server) handleFlash(c *fiber.Ctx) error {
	mode := s.screen.ToggleFlash()
	return c.JSON(FlashResponse{Flash: mode, Label: mode.Label()})
}

// handlePhoto returns the last captured photo, or a rounded PNG thumbnail
// with ?thumb=1.
func (s *Server) handlePhoto(c *fiber.Ctx) error {
	photo := s.screen.LastPhoto()
	if photo == nil || len(photo.Data) == 0 {
		return fiber.NewError(fiber.StatusNotFound, "no photo captured yet")
	}

	c.Set("X-Photo-ID", photo.ID)
	c.Set(fiber.HeaderCacheControl, "no-store")

	if c.QueryBool("thumb") {
		size := c.QueryInt("size", preview.DefaultMaxDim)
		if size <= 0 || size > maxThumbDim {
			return fiber.NewError(fiber.StatusBadRequest, "size must be 1-"+strconv.Itoa(maxThumbDim))
		}
		png, err := preview.Thumbnail(photo.Data, size, preview.DefaultCornerRadius)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(png)
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(photo.Data)
}

// handleGetCamera returns the camera configuration
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.cameras == nil {
		return fiber.ErrNotFound
	}
	return c.JSON(s.cameras.GetConfigJSON())
}

// handleUpdateCamera applies a partial camera configuration update
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.cameras == nil {
		return fiber.ErrNotFound
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	if err := s.cameras.UpdateConfig(params); err != nil {
		if errors.Is(err, camera.ErrDeviceUnavailable) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.cameras.GetConfigJSON())
}

// handleStateWS streams screen state updates
func (s *Server) handleStateWS(c *websocket.Conn) {
	s.serveClient(s.stateHub, c)
}

// handlePreviewWS streams JPEG preview frames
func (s *Server) handlePreviewWS(c *websocket.Conn) {
	s.serveClient(s.previewHub, c)
}

func (s *Server) serveClient(h *hub.Hub, c *websocket.Conn) {
	client, err := hub.NewClient(h, c)
	if err != nil {
		s.logger.Debug("rejecting websocket", "error", err)
		c.Close()
		return
	}
	client.Run()
}

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gregriff/stegochat/internal/cipher"
	"github.com/gregriff/stegochat/internal/conceal"
	"github.com/gregriff/stegochat/internal/schemas"
	"github.com/gregriff/stegochat/internal/stego"
)

var errMissingImage = errors.New("missing image")

// handleEmbed handles POST /api/v1/stego/embed (multipart: image, message, password).
// The response body is the PNG carrying the message.
func (s *Server) handleEmbed(c *gin.Context) {
	img, err := s.readImage(c)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: reason(err), Message: err.Error()})
		return
	}
	message := c.PostForm("message")
	if message == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing message"})
		return
	}

	if err := s.codecSem.Acquire(c.Request.Context(), 1); err != nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	out, err := s.concealer.Conceal(img, []byte(message), []byte(c.PostForm("password")))
	s.codecSem.Release(1)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: reason(err), Message: err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="stego.png"`)
	c.Data(http.StatusOK, "image/png", out)
}

// handleExtract handles POST /api/v1/stego/extract (multipart: image, password). Extraction
// failures are answered like the websocket extract_message event, with a 200 status.
func (s *Server) handleExtract(c *gin.Context) {
	img, err := s.readImage(c)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: reason(err), Message: err.Error()})
		return
	}

	if err := s.codecSem.Acquire(c.Request.Context(), 1); err != nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	msg, err := s.concealer.Reveal(img, []byte(c.PostForm("password")))
	s.codecSem.Release(1)
	if err != nil {
		c.JSON(http.StatusOK, schemas.MessageExtracted{Success: false, Error: conceal.Reason(err)})
		return
	}
	c.JSON(http.StatusOK, schemas.MessageExtracted{Success: true, Message: string(msg)})
}

// readImage reads the "image" form file.
func (s *Server) readImage(c *gin.Context) ([]byte, error) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: request exceeds %d bytes", stego.ErrImageTooLarge, maxErr.Limit)
		}
		return nil, fmt.Errorf("%w: %v", errMissingImage, err)
	}
	defer file.Close()

	if s.config.MaxUploadBytes > 0 && header.Size > s.config.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", stego.ErrImageTooLarge, header.Size, s.config.MaxUploadBytes)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("error reading image: %w", err)
	}
	return data, nil
}

func reason(err error) string {
	if errors.Is(err, errMissingImage) {
		return "missing-image"
	}
	return conceal.Reason(err)
}

func statusFor(err error) int {
	var capErr *stego.CapacityError
	switch {
	case errors.Is(err, stego.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &capErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errMissingImage), errors.Is(err, stego.ErrInvalidImage), errors.Is(err, cipher.ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

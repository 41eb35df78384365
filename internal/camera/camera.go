// Package camera grabs still pictures from a local video device with OpenCV.
package camera

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sync"

	"picturebridge/internal/config"
	"picturebridge/internal/logger"
	"picturebridge/internal/model"

	"gocv.io/x/gocv"
)

// skipFrames are read and discarded before the real shot; many webcams
// return dark frames right after opening.
const skipFrames = 2

// Camera opens the configured device for every shot and releases it after.
type Camera struct {
	cfg    config.CameraConfig
	logger *logger.Logger
	mu     sync.Mutex
}

// New creates a Camera using the given immutable configuration.
func New(cfg config.CameraConfig, logger *logger.Logger) *Camera {
	return &Camera{cfg: cfg, logger: logger}
}

// Capture takes one picture and writes it to path.
func (c *Camera) Capture(ctx context.Context, path string) (*model.Shot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	webcam, err := gocv.OpenVideoCapture(c.cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", c.cfg.Device, err)
	}
	defer webcam.Close()

	webcam.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))

	img := gocv.NewMat()
	defer img.Close()

	for i := 0; i <= skipFrames; i++ {
		if ok := webcam.Read(&img); !ok {
			return nil, fmt.Errorf("failed to read frame from camera %d", c.cfg.Device)
		}
	}
	if img.Empty() {
		return nil, fmt.Errorf("camera %d returned an empty frame", c.cfg.Device)
	}

	data, err := c.encode(img)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write picture %s: %w", path, err)
	}

	if c.cfg.Verbose {
		c.logger.Info("Captured %dx%d frame to %s (%d bytes)", img.Cols(), img.Rows(), path, len(data))
	}

	shot := &model.Shot{Path: path}
	switch c.cfg.Delivery {
	case "buffer":
		shot.Data = data
	case "base64":
		shot.Base64 = base64.StdEncoding.EncodeToString(data)
	}
	return shot, nil
}

func (c *Camera) encode(img gocv.Mat) ([]byte, error) {
	ext := gocv.JPEGFileExt
	params := []int{gocv.IMWriteJpegQuality, c.cfg.Quality}
	if c.cfg.Output == "png" {
		ext = gocv.PNGFileExt
		// map quality 0..100 onto png compression 9..0
		params = []int{gocv.IMWritePngCompression, 9 - c.cfg.Quality*9/100}
	}

	buf, err := gocv.IMEncodeWithParams(ext, img, params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	encoded := buf.GetBytes()
	data := make([]byte, len(encoded))
	copy(data, encoded)
	return data, nil
}

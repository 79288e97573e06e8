package siteadmin

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/crownheights/siteadmin/access"
	"github.com/crownheights/siteadmin/content"
	"github.com/crownheights/siteadmin/views"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 85

	msgWrongPassword = "Incorrect password!"
)

var galleryMessages = map[string]string{
	"added":   "Image added to the gallery.",
	"deleted": "Image removed from the gallery.",
}

func (a *App) handleGallery(c echo.Context) error {
	return a.renderGallery(c, http.StatusOK, galleryMessages[c.QueryParam("msg")])
}

func (a *App) renderGallery(c echo.Context, code int, msg string) error {
	return RenderStatus(c, code, a.Views.Gallery(a.site(), views.GalleryPage{
		Images:    a.Cache.Gallery(c.Request().Context()),
		Message:   msg,
		MaxBytes:  a.Content.MaxImageBytes(),
		CSRFToken: CsrfToken(c),
	}))
}

// checkGate asks for the admin password on every gallery action. done is
// true when the handler must return err without touching the stores.
func (a *App) checkGate(c echo.Context) (done bool, err error) {
	switch gateErr := a.Gate.Check(c.FormValue("password")); {
	case errors.Is(gateErr, access.ErrCancelled):
		return true, c.Redirect(http.StatusSeeOther, "/gallery/")
	case gateErr != nil:
		return true, a.renderGallery(c, http.StatusForbidden, msgWrongPassword)
	}
	return false, nil
}

func (a *App) handleGalleryUpload(c echo.Context) error {
	limit := a.Content.MaxImageBytes()
	req := c.Request()
	if err := req.ParseMultipartForm(uploadBodyLimit(limit)); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return a.renderGallery(c, http.StatusRequestEntityTooLarge, tooLargeMessage(limit))
		}
		return a.renderGallery(c, http.StatusBadRequest, "Could not read the upload.")
	}

	if done, err := a.checkGate(c); done {
		return err
	}

	file, err := c.FormFile("image")
	if err != nil {
		return a.renderGallery(c, http.StatusBadRequest, "No image file provided.")
	}
	if file.Size > limit {
		return a.renderGallery(c, http.StatusBadRequest, tooLargeMessage(limit))
	}
	f, err := file.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return err
	}
	if int64(len(data)) > limit {
		return a.renderGallery(c, http.StatusBadRequest, tooLargeMessage(limit))
	}

	src, err := imageDataURI(data)
	if err != nil {
		return a.renderGallery(c, http.StatusBadRequest, "Invalid image: "+err.Error())
	}

	backend, err := a.Content.SaveGalleryImage(req.Context(), src)
	switch {
	case content.IsValidation(err):
		return a.renderGallery(c, http.StatusBadRequest, tooLargeMessage(limit))
	case err != nil:
		c.Logger().Errorf("gallery upload: %v", err)
		return a.renderGallery(c, http.StatusServiceUnavailable, "Error uploading image: "+err.Error())
	}
	c.Logger().Infof("gallery image saved to %s store", backend)
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/gallery/?msg=added")
}

func (a *App) handleGalleryDelete(c echo.Context) error {
	if done, err := a.checkGate(c); done {
		return err
	}
	_, err := a.Content.DeleteGalleryImage(c.Request().Context(), c.Param("id"))
	switch {
	case content.IsValidation(err):
		return c.String(http.StatusBadRequest, "Image id required")
	case err != nil:
		c.Logger().Errorf("gallery delete: %v", err)
		return a.renderGallery(c, http.StatusServiceUnavailable, "Error deleting image: "+err.Error())
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/gallery/?msg=deleted")
}

// uploadBodyLimit leaves room for the multipart envelope and the small
// form fields around an image of up to limit bytes.
func uploadBodyLimit(limit int64) int64 {
	return limit + 1<<20
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("File is too large! Please use images smaller than %s.", humanSize(limit))
}

func humanSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%dKB", n>>10)
}

// imageDataURI checks that data is a decodable image and returns it as a
// base64 data URI. Images wider than maxImageWidth are scaled down and
// re-encoded as JPEG; the rest keep their original bytes.
func imageDataURI(data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width > maxImageWidth {
		data, err = downscale(data)
		if err != nil {
			return "", err
		}
		format = "jpeg"
	}
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func downscale(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	newH := h * maxImageWidth / w
	dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

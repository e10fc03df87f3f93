package multipart

import (
	"bytes"
	"fmt"
	mp "mime/multipart"
	"strconv"
)

// Photo is the image part of a story submission.
type Photo struct {
	Name string
	Data []byte
}

// Payload is an encoded multipart/form-data body plus its content type,
// ready to be posted to the submission endpoints.
type Payload struct {
	Body        []byte
	ContentType string
}

// Build assembles the submission payload: description, photo, and the
// optional coordinate pair. Coordinates are written only when both are
// present.
func Build(description string, photo Photo, lat, lon *float64) (Payload, error) {
	var buf bytes.Buffer
	w := mp.NewWriter(&buf)

	if err := w.WriteField("description", description); err != nil {
		return Payload{}, fmt.Errorf("write description field: %w", err)
	}

	name := photo.Name
	if name == "" {
		name = "photo.jpg"
	}
	fw, err := w.CreateFormFile("photo", name)
	if err != nil {
		return Payload{}, fmt.Errorf("create photo part: %w", err)
	}
	if _, err := fw.Write(photo.Data); err != nil {
		return Payload{}, fmt.Errorf("write photo part: %w", err)
	}

	if lat != nil && lon != nil {
		if err := w.WriteField("lat", strconv.FormatFloat(*lat, 'f', -1, 64)); err != nil {
			return Payload{}, fmt.Errorf("write lat field: %w", err)
		}
		if err := w.WriteField("lon", strconv.FormatFloat(*lon, 'f', -1, 64)); err != nil {
			return Payload{}, fmt.Errorf("write lon field: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return Payload{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	return Payload{Body: buf.Bytes(), ContentType: w.FormDataContentType()}, nil
}

package uploads

import (
	"bytes"

	gomp4 "github.com/abema/go-mp4"
	"github.com/pkg/errors"
)

// probeDurationMS reads the movie header of an mp4 payload and returns its
// duration in milliseconds.
func probeDurationMS(data []byte) (*int64, error) {
	info, err := gomp4.Probe(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if info.Timescale == 0 {
		return nil, errors.New("mp4 movie header has no timescale")
	}

	ms := int64(info.Duration * 1000 / uint64(info.Timescale))
	return &ms, nil
}

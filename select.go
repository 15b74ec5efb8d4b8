package hwcodec

import (
	"context"
	"fmt"
)

// AvailableEncoders probes every encoder in r for ec and returns the viable
// ones, best first.
func AvailableEncoders(ctx context.Context, p *Prober, r *Registry, ec EncodeContext) ([]CodecInfo, error) {
	infos, err := p.ProbeEncoders(ctx, ec, r.Encoders())
	if err != nil {
		return nil, err
	}
	return Prioritize(infos), nil
}

// AvailableDecoders probes every decoder in r for dc and returns the viable
// ones, best first.
func AvailableDecoders(ctx context.Context, p *Prober, r *Registry, dc DecodeContext) ([]CodecInfo, error) {
	infos, err := p.ProbeDecoders(ctx, dc, r.Decoders())
	if err != nil {
		return nil, err
	}
	return Prioritize(infos), nil
}

// OpenBestEncoder opens an encode session. A named context opens exactly
// that backend. Otherwise every registered encoder is probed and the best
// ranked one that opens is used.
func OpenBestEncoder(ctx context.Context, p *Prober, r *Registry, ec EncodeContext, opts ...SessionOption) (*EncodeSession, error) {
	if ec.Name != "" {
		b, err := r.Encoder(ec.Name)
		if err != nil {
			return nil, err
		}
		return OpenEncoder(b, ec, opts...)
	}

	infos, err := AvailableEncoders(ctx, p, r, ec)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, info := range infos {
		b, err := r.Encoder(info.Name)
		if err != nil {
			lastErr = err
			continue
		}
		s, err := OpenEncoder(b, ec, opts...)
		if err != nil {
			lastErr = err
			continue
		}
		return s, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: no encoder for %s %dx%d %s", ErrBackendUnavailable,
		ec.Format(), ec.Width, ec.Height, ec.PixelFormat)
}

// OpenBestDecoder opens a decode session, see OpenBestEncoder.
func OpenBestDecoder(ctx context.Context, p *Prober, r *Registry, dc DecodeContext, opts ...SessionOption) (*DecodeSession, error) {
	if dc.Name != "" {
		b, err := r.Decoder(dc.Name)
		if err != nil {
			return nil, err
		}
		return OpenDecoder(b, dc, opts...)
	}

	infos, err := AvailableDecoders(ctx, p, r, dc)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, info := range infos {
		b, err := r.Decoder(info.Name)
		if err != nil {
			lastErr = err
			continue
		}
		s, err := OpenDecoder(b, dc, opts...)
		if err != nil {
			lastErr = err
			continue
		}
		return s, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: no decoder for %s", ErrBackendUnavailable, dc.Format())
}

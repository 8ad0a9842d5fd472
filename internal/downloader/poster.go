// Package downloader fetches poster images for placed videos.
package downloader

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"mdc/internal/config"
	"mdc/internal/datatype"
	"mdc/internal/image"
	"mdc/pkg/web"
)

// imageAccept covers the MIME types origin CDNs serve for covers.
const imageAccept = "image/avif,image/webp,image/apng,image/jpeg,image/png,image/*,*/*;q=0.8"

// PosterFetcher downloads cover art next to placed videos.
type PosterFetcher struct {
	client *web.Client
	cfg    *config.Config
}

// NewPosterFetcher creates a fetcher sharing the run's gateway client.
func NewPosterFetcher(client *web.Client, cfg *config.Config) *PosterFetcher {
	return &PosterFetcher{client: client, cfg: cfg}
}

// FetchPoster writes `<base_name>-poster.jpg` into destFolder from the
// metadata's preferred cover URL. Failures are logged and swallowed; a
// missing poster never fails the surrounding placement.
func (f *PosterFetcher) FetchPoster(ctx context.Context, meta *datatype.Metadata, destFolder, baseName string) {
	imageURL := meta.PosterURL()
	if imageURL == "" {
		return
	}

	opts := &web.RequestOptions{Accept: imageAccept}
	if u, err := url.Parse(imageURL); err == nil {
		opts.Referer = u.Scheme + "://" + u.Host + "/"
		if f.cfg != nil {
			opts.Cookie = f.cfg.CookieHeader(u.Hostname())
		}
	}

	data, err := f.client.Bytes(ctx, imageURL, opts)
	if err != nil {
		logrus.WithField("url", imageURL).Warnf("poster download failed: %v", err)
		return
	}

	// Landscape sleeves carry the front cover on the right; cut modes
	// other than copy crop it out. A crop failure falls back to the
	// raw bytes rather than losing the poster.
	if meta.CoverSmall == "" && meta.ImageCut != datatype.ImageCutCopy {
		if cropped, cerr := image.MakePoster(data, meta.ImageCut); cerr == nil {
			data = cropped
		} else {
			logrus.Debugf("poster crop failed, keeping original: %v", cerr)
		}
	}

	dest := filepath.Join(destFolder, baseName+"-poster.jpg")
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		logrus.WithField("dest", dest).Warnf("poster write failed: %v", err)
		return
	}
	logrus.WithField("dest", dest).Debug("poster saved")
}

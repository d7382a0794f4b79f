// Package assets resolves image references against local files.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	portabletext "github.com/derickschaefer/go-portabletext"
	"github.com/derickschaefer/go-portabletext/config"
	"github.com/derickschaefer/go-portabletext/convert"
)

var (
	// ErrOutsideRoot is returned for references escaping the asset root.
	ErrOutsideRoot = errors.New("reference escapes asset root")
	// ErrNotImage is returned when a file is not a recognized image.
	ErrNotImage = errors.New("not an image")
)

// FileResolver implements convert.AssetResolver on top of a directory.
// Relative references are looked up under Root to learn their type and
// dimensions and are published under BaseURL. Remote references are never
// fetched.
type FileResolver struct {
	Root    string
	BaseURL string
	Strict  bool // report unreadable images instead of using a placeholder
	Log     *zap.Logger
}

var _ convert.AssetResolver = (*FileResolver)(nil)

// New returns a resolver configured from cfg.
func New(cfg config.AssetsConfig, log *zap.Logger) *FileResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileResolver{
		Root:    cfg.Root,
		BaseURL: cfg.BaseURL,
		Strict:  cfg.Strict,
		Log:     log.Named("assets"),
	}
}

func isRemote(ref string) bool {
	if strings.HasPrefix(ref, "//") {
		return true
	}
	u, err := url.Parse(ref)
	return err == nil && u.Scheme != ""
}

// Resolve returns the published location of ref.
func (r *FileResolver) Resolve(ref string) (string, error) {
	if isRemote(ref) || len(r.BaseURL) == 0 {
		return ref, nil
	}
	return strings.TrimRight(r.BaseURL, "/") + "/" + strings.TrimLeft(ref, "/"), nil
}

// ResolvePicture probes the file behind ref. Failures produce a placeholder
// unless Strict is set.
func (r *FileResolver) ResolvePicture(ref, alt string) (portabletext.Picture, error) {
	src, err := r.Resolve(ref)
	if err != nil {
		return portabletext.Picture{}, err
	}
	if isRemote(ref) {
		r.logger().Debug("Remote image is not probed", zap.String("ref", ref))
		return convert.PlaceholderPicture(src, alt), nil
	}

	pic, err := r.probe(ref, src, alt)
	if err != nil {
		if r.Strict {
			return portabletext.Picture{}, err
		}
		r.logger().Warn("Unable to probe image, using placeholder", zap.String("ref", ref), zap.Error(err))
		return convert.PlaceholderPicture(src, alt), nil
	}
	return pic, nil
}

func (r *FileResolver) probe(ref, src, alt string) (portabletext.Picture, error) {
	path, err := r.localPath(ref)
	if err != nil {
		return portabletext.Picture{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return portabletext.Picture{}, fmt.Errorf("unable to read image: %w", err)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(data) {
		return portabletext.Picture{}, fmt.Errorf("%s: %w", ref, ErrNotImage)
	}

	var width, height int
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	} else {
		// svg and friends have a mime type but no raster header
		r.logger().Debug("Unable to decode image dimensions", zap.String("ref", ref), zap.Error(err))
	}

	r.logger().Debug("Probed image",
		zap.String("ref", ref),
		zap.String("type", kind.MIME.Value),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
		zap.Int("width", width),
		zap.Int("height", height))

	return portabletext.Picture{
		Src:    src,
		Alt:    alt,
		Width:  width,
		Height: height,
		Sources: []portabletext.PictureSource{{
			Srcset: src,
			Width:  width,
			Height: height,
			Type:   kind.MIME.Value,
		}},
	}, nil
}

// localPath maps ref to a file under Root.
func (r *FileResolver) localPath(ref string) (string, error) {
	if u, err := url.Parse(ref); err == nil {
		ref = u.Path
	}
	root := r.Root
	if len(root) == 0 {
		root = "."
	}
	path := filepath.Join(root, filepath.FromSlash(strings.TrimLeft(ref, "/")))
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", ref, ErrOutsideRoot)
	}
	return path, nil
}

func (r *FileResolver) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

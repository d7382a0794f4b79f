package convert

import (
	portabletext "github.com/derickschaefer/go-portabletext"
)

// AssetResolver turns raw image references into resolved sources and picture
// descriptors. Calls are synchronous; an error aborts the conversion with
// ErrResolverFailure.
type AssetResolver interface {
	Resolve(ref string) (string, error)
	ResolvePicture(ref, alt string) (portabletext.Picture, error)
}

// IdentityResolver returns references unchanged with a placeholder picture.
type IdentityResolver struct{}

func (IdentityResolver) Resolve(ref string) (string, error) { return ref, nil }

func (IdentityResolver) ResolvePicture(ref, alt string) (portabletext.Picture, error) {
	return PlaceholderPicture(ref, alt), nil
}

// PlaceholderPicture describes an image whose metadata is unknown.
func PlaceholderPicture(src, alt string) portabletext.Picture {
	return portabletext.Picture{Src: src, Alt: alt, Sources: []portabletext.PictureSource{}}
}

// ResolverFuncs builds an AssetResolver from two functions; a nil function
// falls back to IdentityResolver.
type ResolverFuncs struct {
	ResolveFunc        func(ref string) (string, error)
	ResolvePictureFunc func(ref, alt string) (portabletext.Picture, error)
}

func (r ResolverFuncs) Resolve(ref string) (string, error) {
	if r.ResolveFunc == nil {
		return IdentityResolver{}.Resolve(ref)
	}
	return r.ResolveFunc(ref)
}

func (r ResolverFuncs) ResolvePicture(ref, alt string) (portabletext.Picture, error) {
	if r.ResolvePictureFunc == nil {
		return IdentityResolver{}.ResolvePicture(ref, alt)
	}
	return r.ResolvePictureFunc(ref, alt)
}

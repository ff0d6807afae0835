package assets

import "fmt"

// Kind is the semantic purpose of an uploaded file. The set is closed;
// ParseKind is the only way in from the wire.
type Kind int

const (
	KindImage Kind = iota
	KindMarketingVideo
	KindDocument
	KindContentVideo
	KindGenericFile
	KindSlide
	KindLogo
	KindAudio
)

// Layer decides which identity an asset attaches to: marketing assets key
// off the product record itself, content assets off the product's sub-entity,
// system assets off a platform-level slot.
type Layer int

const (
	LayerMarketing Layer = iota
	LayerContent
	LayerSystem
)

var kindNames = map[Kind]string{
	KindImage:          "image",
	KindMarketingVideo: "marketing-video",
	KindDocument:       "document",
	KindContentVideo:   "content-video",
	KindGenericFile:    "generic-file",
	KindSlide:          "slide",
	KindLogo:           "logo",
	KindAudio:          "audio",
}

var kindLayers = map[Kind]Layer{
	KindImage:          LayerMarketing,
	KindMarketingVideo: LayerMarketing,
	KindDocument:       LayerContent,
	KindContentVideo:   LayerContent,
	KindGenericFile:    LayerContent,
	KindSlide:          LayerContent,
	KindLogo:           LayerSystem,
	KindAudio:          LayerSystem,
}

// singleSlot marks kinds that allow at most one persisted file per product.
var singleSlot = map[Kind]bool{
	KindImage:          true,
	KindMarketingVideo: true,
	KindLogo:           true,
	KindAudio:          true,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) Layer() Layer {
	return kindLayers[k]
}

// SingleSlot reports whether at most one persisted file may occupy this kind.
func (k Kind) SingleSlot() bool {
	return singleSlot[k]
}

func (l Layer) String() string {
	switch l {
	case LayerMarketing:
		return "marketing"
	case LayerContent:
		return "content"
	case LayerSystem:
		return "system"
	}
	return fmt.Sprintf("Layer(%d)", int(l))
}

// ParseKind maps a wire string to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown asset kind: %q", s)
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindImage,
		KindMarketingVideo,
		KindDocument,
		KindContentVideo,
		KindGenericFile,
		KindSlide,
		KindLogo,
		KindAudio,
	}
}

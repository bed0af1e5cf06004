package domain

// AspectRatio は画像のアスペクト比を表す定数です
type AspectRatio int

const (
	AspectRatioLandscapeWide AspectRatio = iota
	AspectRatioSquare
	AspectRatioPortrait
	AspectRatioLandscape
	AspectRatioPortraitTall
)

// DefaultAspectRatio は、指定がない場合のアスペクト比です
const DefaultAspectRatio = AspectRatioLandscapeWide

// discordOptionData はスラッシュコマンドの選択肢データを保持します
type discordOptionData struct {
	Value       string
	DisplayName string
}

// aspectRatios は各AspectRatioのデータを定義します
var aspectRatios = []discordOptionData{
	{"16:9", "横長ワイド (16:9)"},
	{"1:1", "正方形 (1:1)"},
	{"3:4", "縦長 (3:4)"},
	{"4:3", "横長 (4:3)"},
	{"9:16", "縦長ワイド (9:16)"},
}

// String はAspectRatioの比率表記を返します
func (a AspectRatio) String() string {
	if int(a) >= 0 && int(a) < len(aspectRatios) {
		return aspectRatios[a].Value
	}
	return "16:9"
}

// DisplayName はAspectRatioの表示名を返します
func (a AspectRatio) DisplayName() string {
	if int(a) >= 0 && int(a) < len(aspectRatios) {
		return aspectRatios[a].DisplayName
	}
	return "横長ワイド (16:9)"
}

// ParseAspectRatio は比率表記からAspectRatioを返します
// 空文字列はデフォルト値として扱います
func ParseAspectRatio(s string) (AspectRatio, error) {
	if s == "" {
		return DefaultAspectRatio, nil
	}
	for i, d := range aspectRatios {
		if d.Value == s {
			return AspectRatio(i), nil
		}
	}
	return DefaultAspectRatio, ErrInvalidAspectRatio
}

// AllAspectRatios はすべてのAspectRatioを返します
func AllAspectRatios() []AspectRatio {
	return []AspectRatio{
		AspectRatioLandscapeWide,
		AspectRatioSquare,
		AspectRatioPortrait,
		AspectRatioLandscape,
		AspectRatioPortraitTall,
	}
}

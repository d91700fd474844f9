package qr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

const (
	DefaultSize    = 512
	LogoSize       = 60
	logoHalo       = 5
	captionOpacity = 128
	captionMargin  = 10
	avatarTimeout  = 5 * time.Second
	avatarCacheTTL = time.Hour
	avatarCacheMax = 256
)

// AvatarFetcher baja los bytes crudos de una imagen.
type AvatarFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Options struct {
	Foreground color.Color // nil => negro
	Background color.Color // nil => blanco
	AvatarURL  string
	Caption    string // "" => "UPI: <id>"
}

type Generator struct {
	avatars AvatarFetcher
	cache   *expirable.LRU[string, image.Image]
	log     *zap.Logger
	size    int
}

// NewGenerator: avatars puede ser nil (sin logo).
func NewGenerator(avatars AvatarFetcher, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		avatars: avatars,
		cache:   expirable.NewLRU[string, image.Image](avatarCacheMax, nil, avatarCacheTTL),
		log:     log.Named("qr"),
		size:    DefaultSize,
	}
}

// Generate devuelve el PNG. Si el avatar falla se sigue sin logo.
func (g *Generator) Generate(ctx context.Context, p Payment, opt Options) ([]byte, error) {
	uri := BuildPaymentURI(p)

	code, err := qrcode.New(uri, qrcode.Highest)
	if err != nil {
		return nil, err
	}
	code.ForegroundColor = color.Black
	code.BackgroundColor = color.White
	if opt.Foreground != nil {
		code.ForegroundColor = opt.Foreground
	}
	if opt.Background != nil {
		code.BackgroundColor = opt.Background
	}

	src := code.Image(g.size)
	img := image.NewRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)

	if opt.AvatarURL != "" {
		if logo := g.avatar(ctx, opt.AvatarURL); logo != nil {
			addCenterLogo(img, logo)
		}
	}

	caption := opt.Caption
	if caption == "" {
		caption = "UPI: " + p.UPIID
	}
	addCaption(img, caption, captionOpacity)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	g.log.Debug("qr generated", zap.Int("bytes", buf.Len()), zap.Bool("logo", opt.AvatarURL != ""))
	return buf.Bytes(), nil
}

// avatar: cache 1h del logo ya escalado.
func (g *Generator) avatar(ctx context.Context, url string) image.Image {
	if logo, ok := g.cache.Get(url); ok {
		return logo
	}
	if g.avatars == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, avatarTimeout)
	defer cancel()

	raw, err := g.avatars.Fetch(ctx, url)
	if err != nil {
		g.log.Warn("avatar download failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		g.log.Warn("avatar decode failed", zap.String("url", url), zap.Error(err))
		return nil
	}

	logo := image.NewRGBA(image.Rect(0, 0, LogoSize, LogoSize))
	draw.CatmullRom.Scale(logo, logo.Bounds(), src, src.Bounds(), draw.Src, nil)
	g.cache.Add(url, logo)
	return logo
}

// addCenterLogo: halo blanco (+5px por lado) y el logo recortado en círculo.
func addCenterLogo(dst *image.RGBA, logo image.Image) {
	b := dst.Bounds()
	lb := logo.Bounds()
	pos := image.Pt(
		b.Min.X+(b.Dx()-lb.Dx())/2,
		b.Min.Y+(b.Dy()-lb.Dy())/2,
	)

	halo := image.Rect(pos.X-logoHalo, pos.Y-logoHalo, pos.X+lb.Dx()+logoHalo, pos.Y+lb.Dy()+logoHalo)
	draw.Draw(dst, halo, image.White, image.Point{}, draw.Src)

	r := image.Rectangle{Min: pos, Max: pos.Add(lb.Size())}
	draw.DrawMask(dst, r, logo, lb.Min, &circle{center: image.Pt(lb.Dx()/2, lb.Dy()/2), r: lb.Dx() / 2}, image.Point{}, draw.Over)
}

// circle es una máscara alfa: opaco dentro del radio.
type circle struct {
	center image.Point
	r      int
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle {
	return image.Rect(c.center.X-c.r, c.center.Y-c.r, c.center.X+c.r, c.center.Y+c.r)
}

func (c *circle) At(x, y int) color.Color {
	xx, yy, rr := float64(x-c.center.X)+0.5, float64(y-c.center.Y)+0.5, float64(c.r)
	if xx*xx+yy*yy < rr*rr {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

// addCaption: texto abajo a la izquierda sobre una caja blanca semitransparente.
func addCaption(dst *image.RGBA, text string, opacity uint8) {
	face := basicfont.Face7x13
	b := dst.Bounds()

	w := font.MeasureString(face, text).Ceil()
	m := face.Metrics()
	h := (m.Ascent + m.Descent).Ceil()

	x := b.Min.X + captionMargin
	y := b.Max.Y - h - captionMargin

	box := image.Rect(x-5, y-5, x+w+5, y+h+5).Intersect(b)
	draw.Draw(dst, box, image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: opacity / 2}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{A: opacity}),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + m.Ascent},
	}
	d.DrawString(text)
}

package qr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPaymentURI(t *testing.T) {
	t.Run("amount formatted with two decimals", func(t *testing.T) {
		uri := BuildPaymentURI(Payment{UPIID: "john@ybl", Name: "John", Amount: 100})
		assert.Contains(t, uri, "am=100.00")
	})

	t.Run("minimal", func(t *testing.T) {
		uri := BuildPaymentURI(Payment{UPIID: "john@ybl", Name: "  John Doe "})
		assert.Equal(t, "upi://pay?pa=john%40ybl&pn=John%20Doe&cu=INR", uri)
	})

	t.Run("zero amount omitted", func(t *testing.T) {
		uri := BuildPaymentURI(Payment{UPIID: "john@ybl", Name: "J", Amount: 0})
		assert.NotContains(t, uri, "am=")
	})

	t.Run("full order", func(t *testing.T) {
		uri := BuildPaymentURI(Payment{UPIID: "a.b@okaxis", Name: "A B", Amount: 49.5, Note: "chai & snacks"})
		assert.Equal(t, "upi://pay?pa=a.b%40okaxis&pn=A%20B&am=49.50&tn=chai%20%26%20snacks&cu=INR", uri)
	})

	t.Run("note truncated to 100", func(t *testing.T) {
		uri := BuildPaymentURI(Payment{UPIID: "john@ybl", Name: "J", Note: strings.Repeat("n", 150)})
		assert.Contains(t, uri, "&tn="+strings.Repeat("n", MaxNoteLength)+"&cu=INR")
	})

	t.Run("blank note omitted", func(t *testing.T) {
		uri := BuildPaymentURI(Payment{UPIID: "john@ybl", Name: "J", Note: "   "})
		assert.NotContains(t, uri, "tn=")
	})
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#FF5733")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x57, B: 0x33, A: 0xff}, c)

	for _, bad := range []string{"FF5733", "#FF573", "#GG5733", "#ff57331", ""} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}

type stubFetcher struct {
	data  []byte
	err   error
	calls atomic.Int32
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	s.calls.Add(1)
	return s.data, s.err
}

func redSquarePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	for x := 0; x < 128; x++ {
		for y := 0; y < 128; y++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decode(t *testing.T, b []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img
}

func TestGenerate_PlainQR(t *testing.T) {
	g := NewGenerator(nil, nil)
	out, err := g.Generate(context.Background(), Payment{UPIID: "john@ybl", Name: "John", Amount: 100}, Options{})
	require.NoError(t, err)

	img := decode(t, out)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
	assert.Equal(t, DefaultSize, img.Bounds().Dy())
}

func TestGenerate_LogoIsCenteredAndCached(t *testing.T) {
	f := &stubFetcher{data: redSquarePNG(t)}
	g := NewGenerator(f, nil)
	p := Payment{UPIID: "john@ybl", Name: "John"}

	out, err := g.Generate(context.Background(), p, Options{AvatarURL: "https://cdn/avatar.png"})
	require.NoError(t, err)

	img := decode(t, out)
	c := img.Bounds().Dx() / 2
	r, gg, b, _ := img.At(c, c).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, gg)
	assert.Zero(t, b)

	// la esquina del halo queda blanca (fuera del círculo)
	half := LogoSize / 2
	r, gg, b, _ = img.At(c-half, c-half).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, gg, b})

	_, err = g.Generate(context.Background(), p, Options{AvatarURL: "https://cdn/avatar.png"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.calls.Load(), "second render served from cache")
}

func TestGenerate_AvatarFailureIsSkipped(t *testing.T) {
	for name, f := range map[string]*stubFetcher{
		"fetch error":  {err: errors.New("timeout")},
		"not an image": {data: []byte("<html>")},
	} {
		t.Run(name, func(t *testing.T) {
			g := NewGenerator(f, nil)
			out, err := g.Generate(context.Background(), Payment{UPIID: "john@ybl", Name: "John"}, Options{AvatarURL: "https://cdn/a.png"})
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}

func TestGenerate_CustomColors(t *testing.T) {
	g := NewGenerator(nil, nil)
	bg, _ := ParseHexColor("#0000FF")
	out, err := g.Generate(context.Background(), Payment{UPIID: "john@ybl", Name: "John"}, Options{Background: bg})
	require.NoError(t, err)

	img := decode(t, out)
	// borde silencioso del QR => color de fondo
	r, gg, b, _ := img.At(img.Bounds().Max.X-2, 1).RGBA()
	assert.Equal(t, []uint32{0, 0, 0xffff}, []uint32{r, gg, b})
}

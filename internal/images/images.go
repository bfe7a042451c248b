// Package images classifies, normalizes and orders garment image URLs.
//
// Uploaded files follow the naming convention {sku}-img{NN}.{ext} for color
// shots and {sku}-bw{NN}.{ext} for black-and-white ones. Historical uploads are
// inconsistent (bw1 instead of bw01, BW files stored in the color table, a
// stray "bw_" prefix), so every read path goes through this package.
package images

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"vintagestore/internal/domain"
)

type Kind string

const (
	Color Kind = "color"
	BW    Kind = "bw"
)

func (k Kind) Valid() bool { return k == Color || k == BW }

const artifactPrefix = "bw_"

// DefaultBWCount is how many placeholder BW images a garment gets when none are stored.
const DefaultBWCount = 2

var (
	// bw needs no separator (TRK-001bw02.png); the word forms do.
	reBW       = regexp.MustCompile(`(?i)(?:bw\d*|(?:^|[-_./])(?:blanco-negro|blanco|bn))\.(?:jpe?g|png|webp|gif)(?:[?#].*)?$`)
	rePaddedBW = regexp.MustCompile(`(?i)-bw0[12]\.`)
	reShortBW  = regexp.MustCompile(`(?i)-bw([12])\.(jpe?g|png|webp|gif)`)
	reImgNum   = regexp.MustCompile(`(?i)-img(\d+)\.(jpe?g|png|webp|gif)`)
	reOrdinal  = regexp.MustCompile(`(?i)-(?:img|bw)(\d+)\.`)
)

// Classify decides the kind from the file name alone, regardless of the
// table the row came from.
func Classify(url string) Kind {
	if reBW.MatchString(url) {
		return BW
	}
	return Color
}

func IsBlackAndWhite(url string) bool { return Classify(url) == BW }

// Normalize zero-pads the ordinal of bw1/bw2 and single-digit imgN names.
// It is idempotent and returns the input unchanged when nothing matches.
func Normalize(url string) string {
	if url == "" || rePaddedBW.MatchString(url) {
		return url
	}
	if loc := reShortBW.FindStringSubmatchIndex(url); loc != nil {
		return url[:loc[2]] + "0" + url[loc[2]:]
	}
	if loc := reImgNum.FindStringSubmatchIndex(url); loc != nil {
		digits := url[loc[2]:loc[3]]
		if len(digits) == 1 {
			return url[:loc[2]] + "0" + url[loc[2]:]
		}
	}
	return url
}

// StripArtifact removes the "bw_" marker some historical URLs carry.
func StripArtifact(url string) string {
	return strings.Replace(url, artifactPrefix, "", 1)
}

// Ordinal extracts the numeric suffix of -imgNN./-bwNN.; ok is false when absent.
func Ordinal(url string) (n int, ok bool) {
	m := reOrdinal.FindStringSubmatch(url)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func sortKey(url string) int {
	if n, ok := Ordinal(url); ok {
		return n
	}
	return math.MaxInt
}

// Sort orders images in place by filename ordinal, unnumbered last, ties by id.
func Sort(imgs []domain.Imagen) []domain.Imagen {
	sort.SliceStable(imgs, func(i, j int) bool {
		ki, kj := sortKey(imgs[i].URL), sortKey(imgs[j].URL)
		if ki != kj {
			return ki < kj
		}
		return imgs[i].ID < imgs[j].ID
	})
	return imgs
}

// Resolve turns a relative stored path into an absolute URL under base.
func Resolve(base, url string) string {
	if base == "" || url == "" || strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "//") {
		return url
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(url, "/")
}

// SKUPrefix returns the category prefix, falling back to the SKU up to its first dash.
func SKUPrefix(p *domain.Prenda) string {
	if p.CategoriaPrefix != "" {
		return p.CategoriaPrefix
	}
	if i := strings.Index(p.SKU, "-"); i > 0 {
		return p.SKU[:i]
	}
	return p.SKU
}

// DefaultBWPath is where the upload service puts BW shot n (1-based) of a garment:
// {base}/{drop}/{prefix}/BW/{sku}/{sku}-bw{n}.png. Empty segments are skipped.
func DefaultBWPath(base, drop, prefix, sku string, n int) string {
	parts := make([]string, 0, 6)
	if b := strings.TrimRight(base, "/"); b != "" {
		parts = append(parts, b)
	}
	for _, seg := range []string{drop, prefix, "BW", sku} {
		if seg = strings.Trim(seg, "/"); seg != "" {
			parts = append(parts, seg)
		}
	}
	parts = append(parts, sku+"-bw"+strconv.Itoa(n)+".png")
	return strings.Join(parts, "/")
}

// SynthesizeDefaultBW builds placeholder BW images for a garment without stored ones.
func SynthesizeDefaultBW(base string, p *domain.Prenda) []domain.Imagen {
	if p.SKU == "" {
		return []domain.Imagen{}
	}
	prefix := SKUPrefix(p)
	out := make([]domain.Imagen, 0, DefaultBWCount)
	for n := 1; n <= DefaultBWCount; n++ {
		out = append(out, domain.Imagen{
			ID:       domain.SyntheticImageIDBase + p.ID*10 + int64(n),
			PrendaID: p.ID,
			URL:      Normalize(DefaultBWPath(base, p.DropName, prefix, p.SKU, n)),
		})
	}
	return out
}

// Partition splits rows from both tables into color and BW sets using Classify.
// Color rows that look like BW files are moved; BW-table rows stay BW.
func Partition(color, bw []domain.Imagen) (outColor, outBW []domain.Imagen) {
	outColor = make([]domain.Imagen, 0, len(color))
	outBW = make([]domain.Imagen, 0, len(bw)+1)
	outBW = append(outBW, bw...)
	for _, img := range color {
		if Classify(img.URL) == BW {
			outBW = append(outBW, img)
			continue
		}
		outColor = append(outColor, img)
	}
	return outColor, outBW
}

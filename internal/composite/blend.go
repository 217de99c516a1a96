package composite

import "fmt"

// Blend writes alpha*fg + (1-alpha)*bg into dst per rgb24 channel, truncating
// to uint8. alpha holds one byte per pixel.
func Blend(dst, fg, bg, alpha []byte) error {
	pixels := len(alpha)
	if len(fg) != pixels*3 || len(bg) != pixels*3 || len(dst) != pixels*3 {
		return fmt.Errorf("blend: size mismatch fg=%d bg=%d dst=%d alpha=%d", len(fg), len(bg), len(dst), pixels)
	}
	for i, a := range alpha {
		j := i * 3
		switch a {
		case 255:
			dst[j], dst[j+1], dst[j+2] = fg[j], fg[j+1], fg[j+2]
		case 0:
			dst[j], dst[j+1], dst[j+2] = bg[j], bg[j+1], bg[j+2]
		default:
			af := float32(a) / 255
			bf := 1 - af
			dst[j] = byte(af*float32(fg[j]) + bf*float32(bg[j]))
			dst[j+1] = byte(af*float32(fg[j+1]) + bf*float32(bg[j+1]))
			dst[j+2] = byte(af*float32(fg[j+2]) + bf*float32(bg[j+2]))
		}
	}
	return nil
}

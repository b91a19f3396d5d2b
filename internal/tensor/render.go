package tensor

import (
	"fmt"
	"io"
	"strings"
)

// Render writes a labeled grid of decoded values, two decimals each, one row per line:
//
//	--- label ---
//	1.50	2.00
//	3.50	4.00
func Render(w io.Writer, a *Array, label string) error {
	if err := a.live("render"); err != nil {
		return err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n--- %s ---\n", label)
	p := a.params()
	for i := 0; i < a.rows; i++ {
		for j := 0; j < a.cols; j++ {
			fmt.Fprintf(&sb, "%.2f\t", a.buf.decode(i*a.cols+j, p))
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (a *Array) String() string {
	if a == nil {
		return "<nil>"
	}
	if a.buf == nil {
		return fmt.Sprintf("%dx%d %s (released)", a.rows, a.cols, a.repr)
	}
	var sb strings.Builder
	_ = Render(&sb, a, fmt.Sprintf("%dx%d %s", a.rows, a.cols, a.repr))
	return sb.String()
}

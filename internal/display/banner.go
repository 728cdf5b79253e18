package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var bannerArt = ` __  __          _ _        ___        _
|  \/  | ___  __| (_) __ _ / _ \ _ __ | |_
| |\/| |/ _ \/ _` + "`" + ` | |/ _` + "`" + ` | | | | '_ \| __|
| |  | |  __/ (_| | | (_| | |_| | |_) | |_
|_|  |_|\___|\__,_|_|\__,_|\___/| .__/ \__|
                                |_|
`

// Banner prints the ASCII art header and version line. Color is suppressed
// automatically when color.NoColor is set (non-TTY, --no-color, NO_COLOR).
func Banner(w io.Writer, version string) {
	color.New(color.FgHiMagenta, color.Bold).Fprint(w, bannerArt)
	fmt.Fprintf(w, "media library optimizer %s\n\n", version)
}

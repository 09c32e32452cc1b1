package web

import (
	"fmt"
	"io"
	"strings"

	"github.com/boozedog/devserve/internal/web/handler"
	"github.com/fatih/color"
)

// Name is printed at the top of the startup banner.
const Name = "Dashboard Development Server"

func printBanner(w io.Writer, port int, root string) {
	url := fmt.Sprintf("http://localhost:%d", port)
	title := color.New(color.FgCyan, color.Bold)
	link := color.New(color.FgGreen)
	faint := color.New(color.Faint)

	_, _ = title.Fprintln(w, Name)
	fmt.Fprintf(w, "Serving at:            %s\n", link.Sprint(url))
	fmt.Fprintf(w, "Root directory:        %s\n", root)
	fmt.Fprintf(w, "Open your browser to:  %s\n", link.Sprint(url))
	fmt.Fprintf(w, "Live changes:          %s\n", link.Sprint(url+handler.EventsPath))
	_, _ = faint.Fprintln(w, "Press Ctrl+C to stop the server")
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

func printStopped(w io.Writer) {
	_, _ = color.New(color.FgYellow).Fprintln(w, "Server stopped by user")
}

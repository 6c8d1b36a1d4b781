package commands

import (
	"fmt"

	"github.com/jwtly10/exdoc"
)

// VersionCmd implements the 'version' command
type VersionCmd struct{}

func (v *VersionCmd) Run(global *Global) error {
	_, err := fmt.Fprintf(global.stdout(), "exdoc %s\n", exdoc.VERSION)
	return err
}

package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/jwtly10/exdoc/cmd/exdoc/commands"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("exdoc"),
		kong.Description("Generate doxygen pages from annotated Fortran examples and Jupyter notebooks"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&commands.Global{Stdout: os.Stdout}, cli)
	ctx.FatalIfErrorf(err)
}

package main

import (
	"context"
	"os"

	"github.com/aniruddha-adhikary/CodeWiki/internal/cmd"
	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if cwerrors.Is(err, cwerrors.ErrCanceled) || cwerrors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

package specifier

import (
	_ "github.com/yasumu-org/tanxium/internal/scheme/file"
	_ "github.com/yasumu-org/tanxium/internal/scheme/npm"
	_ "github.com/yasumu-org/tanxium/internal/scheme/remote"
)

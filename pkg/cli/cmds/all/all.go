// Package all registers all shell commands.
package all

import (
	_ "github.com/risky-soc/riskymon/pkg/cli/cmds/boot"
	_ "github.com/risky-soc/riskymon/pkg/cli/cmds/memory"
)

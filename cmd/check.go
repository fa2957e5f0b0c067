package cmd

import (
	"fmt"

	"github.com/lepinkainen/vcolor/types"
	"github.com/lepinkainen/vcolor/ui"
	"github.com/lepinkainen/vcolor/utils"
)

// CheckCmd verifies that the external tools a run needs can be found.
type CheckCmd struct{}

func (cmd *CheckCmd) Run(appCtx *types.AppContext) error {
	cfg, err := appCtx.Settings()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println(ui.HeaderStyle.Render("vcolor dependency check"))

	var failed int
	if err := utils.ValidateFFmpegDependencies(cfg.FFmpegPath, cfg.FFprobePath); err != nil {
		fmt.Println(ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", err)))
		failed++
	} else {
		fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("✅ %s and %s found", cfg.FFmpegPath, cfg.FFprobePath)))
	}

	if err := utils.ValidateWorker(cfg.WorkerCommand); err != nil {
		fmt.Println(ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", err)))
		failed++
	} else {
		fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("✅ inference worker %s found", cfg.WorkerCommand)))
	}

	fmt.Println(ui.InfoStyle.Render(fmt.Sprintf("Workspace root: %s (%d parallel frames by default)", cfg.WorkDir, utils.DefaultWorkers(cfg.WorkDir))))

	appCtx.Log().Debug("dependency check finished", "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d dependency check(s) failed", failed)
	}
	return nil
}

package operation

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/jt196/github-issue-sync/config"
	"github.com/jt196/github-issue-sync/global"
	"github.com/jt196/github-issue-sync/source"
)

// PlanMarker 用于识别计划评论
const PlanMarker = "<!-- plan-sync -->"

// 计划评论的处理结果
const (
	PlanCreated = "created"
	PlanUpdated = "updated"
	PlanSkipped = "skipped"
)

// PublishPlan
// 将 <plan_dir>/<number>.md 发布为 issue 的评论
// 已经存在带有标记的评论时，更新最近更新过的那一条，否则新建评论
func PublishPlan(ctx context.Context, fs afero.Fs, src source.Source, conf *config.Config, number int) (string, error) {
	file := filepath.Join(conf.PlanDir, strconv.Itoa(number)+".md")
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return "", fmt.Errorf("plan file not found: %s: %w", file, err)
	}
	plan := string(data)
	if strings.TrimSpace(plan) == "" {
		return "", fmt.Errorf("plan file is empty: %s", file)
	}

	if conf.DryRun {
		global.Sugar.Infow("publish plan",
			"dry run", true,
			"issue", number,
			"file", file)
		return PlanSkipped, nil
	}

	// 确认 issue 存在
	if _, err := src.GetIssue(ctx, number); err != nil {
		return "", fmt.Errorf("issue #%d: %w", number, err)
	}

	body := PlanMarker + "\n\n" + plan
	comments, err := src.ListComments(ctx, number)
	if err != nil {
		return "", fmt.Errorf("list comments of #%d: %w", number, err)
	}

	var latest int64
	latestAt := ""
	for _, c := range comments {
		if !strings.Contains(c.Body, PlanMarker) {
			continue
		}
		if latest == 0 || c.UpdatedAt >= latestAt {
			latest, latestAt = c.ID, c.UpdatedAt
		}
	}

	if latest != 0 {
		if err := src.UpdateComment(ctx, latest, body); err != nil {
			return "", fmt.Errorf("update comment %d: %w", latest, err)
		}
		global.Sugar.Infow("publish plan",
			"issue", number,
			"comment", latest,
			"action", PlanUpdated)
		return PlanUpdated, nil
	}

	if err := src.CreateComment(ctx, number, body); err != nil {
		return "", fmt.Errorf("create comment on #%d: %w", number, err)
	}
	global.Sugar.Infow("publish plan",
		"issue", number,
		"action", PlanCreated)
	return PlanCreated, nil
}

package generator

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/blimu-dev/skill-gen/pkg/config"
	"github.com/blimu-dev/skill-gen/pkg/ir"
	"github.com/blimu-dev/skill-gen/pkg/logger"
	"github.com/blimu-dev/skill-gen/pkg/renderer"
	"github.com/blimu-dev/skill-gen/pkg/skill"
	"github.com/blimu-dev/skill-gen/pkg/utils"
	"github.com/blimu-dev/skill-gen/pkg/writer"
)

// Summary reports what a run wrote
type Summary struct {
	SkillDir     string
	Resources    int
	Operations   int
	SchemaGroups int
	Schemas      int
	// Files lists written paths in write order
	Files []string
	// Skipped lists paths excluded by the skill config
	Skipped []string
}

// layout writes one skill bundle below dir
type layout struct {
	renderer renderer.Renderer
	writer   writer.Writer
	dir      string
	skill    config.Skill
	summary  *Summary
}

func newLayout(r renderer.Renderer, w writer.Writer, dir string, skill config.Skill) *layout {
	return &layout{
		renderer: r,
		writer:   w,
		dir:      dir,
		skill:    skill,
		summary:  &Summary{SkillDir: dir},
	}
}

func (l *layout) references(elem ...string) string {
	return filepath.Join(append([]string{l.dir, "references"}, elem...)...)
}

func (l *layout) write(ctx context.Context, doc *ir.SkillDocument) (*Summary, error) {
	log := logger.G(ctx)

	resourcesDir := l.references("resources")
	operationsDir := l.references("operations")
	schemasDir := l.references("schemas")
	for _, dir := range []string{l.dir, resourcesDir, operationsDir, schemasDir} {
		if err := l.writer.Mkdir(dir); err != nil {
			return nil, err
		}
	}

	err := l.file(ctx, filepath.Join(l.dir, skill.FileName), func() (string, error) {
		return l.renderer.RenderSkill(doc)
	})
	if err != nil {
		return nil, err
	}

	for _, res := range doc.Resources {
		fileName := utils.ToFileName(res.Tag) + ".md"
		err := l.file(ctx, filepath.Join(resourcesDir, fileName), func() (string, error) {
			return l.renderer.RenderResource(res)
		})
		if err != nil {
			return nil, err
		}
		for _, op := range res.Operations {
			err := l.file(ctx, filepath.Join(operationsDir, utils.ToFileName(op.OperationID)+".md"), func() (string, error) {
				return l.renderer.RenderOperation(op)
			})
			if err != nil {
				return nil, err
			}
			l.summary.Operations++
		}
		l.summary.Resources++
		log.WithField("operations", len(res.Operations)).Infof("generated resources/%s", fileName)
	}

	for _, group := range doc.SchemaGroups {
		prefixDir := filepath.Join(schemasDir, utils.ToFileName(group.Prefix))
		if err := l.writer.Mkdir(prefixDir); err != nil {
			return nil, err
		}
		err := l.file(ctx, filepath.Join(prefixDir, "_index.md"), func() (string, error) {
			return l.renderer.RenderSchemaIndex(group)
		})
		if err != nil {
			return nil, err
		}
		for _, schema := range group.Schemas {
			err := l.file(ctx, filepath.Join(prefixDir, utils.ToFileName(schema.Name)+".md"), func() (string, error) {
				return l.renderer.RenderSchema(schema)
			})
			if err != nil {
				return nil, err
			}
			l.summary.Schemas++
		}
		l.summary.SchemaGroups++
	}
	log.WithFields(logrus.Fields{
		"groups":  l.summary.SchemaGroups,
		"schemas": l.summary.Schemas,
	}).Info("generated schemas")

	if len(doc.AuthSchemes) > 0 {
		err := l.file(ctx, l.references("authentication.md"), func() (string, error) {
			return l.renderer.RenderAuthentication(doc.AuthSchemes)
		})
		if err != nil {
			return nil, err
		}
	}

	log.WithField("dir", l.dir).Infof("skill generated: %d resources, %d operations, %d schema groups",
		l.summary.Resources, l.summary.Operations, l.summary.SchemaGroups)
	return l.summary, nil
}

// file renders and writes one document unless the skill excludes it.
// Excluded documents still count towards the summary totals.
func (l *layout) file(ctx context.Context, path string, render func() (string, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.skill.ShouldExcludeFile(l.dir, path) {
		logger.G(ctx).WithField("file", path).Debug("skipping excluded file")
		l.summary.Skipped = append(l.summary.Skipped, path)
		return nil
	}
	content, err := render()
	if err != nil {
		return errors.Wrapf(err, "failed to render %s", path)
	}
	if err := l.writer.WriteFile(path, content); err != nil {
		return err
	}
	logger.G(ctx).WithField("file", path).Debug("wrote file")
	l.summary.Files = append(l.summary.Files, path)
	return nil
}

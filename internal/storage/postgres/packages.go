package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

const packageColumns = `id, code, title, price, lessons_count, schedule_code`

func scanPackage(row pgx.Row) (*models.LessonPackage, error) {
	pkg := &models.LessonPackage{}
	var price int64
	var lessons *int32
	if err := row.Scan(&pkg.ID, &pkg.Code, &pkg.Title, &price, &lessons, &pkg.ScheduleCode); err != nil {
		return nil, err
	}
	pkg.Price = models.Money(price)
	if lessons != nil {
		pkg.LessonsCount = models.IntPtr(int(*lessons))
	}
	return pkg, nil
}

// GetPackageByCode retrieves a catalogue package by its exact code.
func (r *repo) GetPackageByCode(ctx context.Context, code string) (*models.LessonPackage, error) {
	pkg, err := scanPackage(r.q.QueryRow(ctx,
		`SELECT `+packageColumns+` FROM lesson_packages WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("package %s: %w", code, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return pkg, nil
}

// FindPackageByCodePrefix returns the first package whose code starts with prefix.
func (r *repo) FindPackageByCodePrefix(ctx context.Context, prefix string) (*models.LessonPackage, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)

	pkg, err := scanPackage(r.q.QueryRow(ctx,
		`SELECT `+packageColumns+` FROM lesson_packages
		 WHERE code LIKE $1 ESCAPE '\' ORDER BY code LIMIT 1`,
		escaped+"%"))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("package prefix %s: %w", prefix, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find package by prefix: %w", err)
	}
	return pkg, nil
}

// ListPackages returns the whole catalogue.
func (r *repo) ListPackages(ctx context.Context) ([]*models.LessonPackage, error) {
	rows, err := r.q.Query(ctx, `SELECT `+packageColumns+` FROM lesson_packages ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var pkgs []*models.LessonPackage
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		pkgs = append(pkgs, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate packages: %w", err)
	}
	return pkgs, nil
}

// EnsurePackage inserts pkg unless its code is already in the catalogue.
func (r *repo) EnsurePackage(ctx context.Context, pkg *models.LessonPackage) error {
	if pkg.ID == "" {
		pkg.ID = uuid.New().String()
	}

	_, err := r.q.Exec(ctx,
		`INSERT INTO lesson_packages (`+packageColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (code) DO NOTHING`,
		pkg.ID, pkg.Code, pkg.Title, int64(pkg.Price), nullInt(pkg.LessonsCount), pkg.ScheduleCode,
	)
	if err != nil {
		return fmt.Errorf("failed to insert package: %w", err)
	}
	return nil
}

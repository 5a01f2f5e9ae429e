package ledger

import (
	"context"
	"errors"

	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/internal/storage"
)

// PackageResolver maps packages onto students.
type PackageResolver struct {
	env *env
}

// Assign snapshots pkg onto student. When the package has a lesson count
// the remaining balance is reset to it; otherwise the balance is left
// as is. The caller persists the student.
func (r *PackageResolver) Assign(student *models.Student, pkg *models.LessonPackage) {
	student.PackageID = pkg.ID
	student.PackageCode = pkg.Code
	student.PackagePrice = pkg.Price
	if pkg.LessonsCount != nil {
		student.RemainingLessons = models.IntPtr(*pkg.LessonsCount)
	}
	r.env.stamp(student)
}

// ResolveForCoarseType finds the catalogue package for a legacy coarse
// type. It returns nil for UNLIMITED, unknown types and types with no
// matching package.
func (r *PackageResolver) ResolveForCoarseType(ctx context.Context, repo storage.Repository, t models.CoarsePackageType) (*models.LessonPackage, error) {
	switch t {
	case models.CoarseLessons24:
		return findByCode(ctx, repo, "LESSONS_24")
	case models.CoarseLessons12:
		for _, code := range []string{"LESSONS_12_MWF", "LESSONS_12_TTS"} {
			pkg, err := findByCode(ctx, repo, code)
			if pkg != nil || err != nil {
				return pkg, err
			}
		}
		pkg, err := repo.FindPackageByCodePrefix(ctx, string(models.CoarseLessons12))
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return pkg, err
	default:
		return nil, nil
	}
}

func findByCode(ctx context.Context, repo storage.Repository, code string) (*models.LessonPackage, error) {
	pkg, err := repo.GetPackageByCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return pkg, err
}

// Catalogue lists every package ordered by code.
func (r *PackageResolver) Catalogue(ctx context.Context) ([]*models.LessonPackage, error) {
	return r.env.store.ListPackages(ctx)
}

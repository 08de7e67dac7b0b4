package loaders

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/domain/repositories"
	apperrors "github.com/zatekoja/patientflow/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// batchWait is how long the doctor loader collects keys before issuing one query.
const batchWait = 2 * time.Millisecond

// Loaders contains the request-scoped dataloaders
type Loaders struct {
	DoctorLoader *dataloader.Loader[string, *entities.Doctor]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(doctorRepo repositories.DoctorRepository) *Loaders {
	return &Loaders{
		DoctorLoader: dataloader.NewBatchedLoader(
			func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Doctor] {
				results := make([]*dataloader.Result[*entities.Doctor], len(keys))
				doctors, err := doctorRepo.GetByIDs(ctx, keys)

				byID := make(map[string]*entities.Doctor, len(doctors))
				if err == nil {
					for _, d := range doctors {
						byID[d.ID] = d
					}
				}

				for i, key := range keys {
					if err != nil {
						results[i] = &dataloader.Result[*entities.Doctor]{Error: err}
					} else if d, ok := byID[key]; ok {
						results[i] = &dataloader.Result[*entities.Doctor]{Data: d}
					} else {
						results[i] = &dataloader.Result[*entities.Doctor]{
							Error: apperrors.NewNotFoundError(fmt.Sprintf("doctor %s not found", key)),
						}
					}
				}
				return results
			},
			dataloader.WithWait[string, *entities.Doctor](batchWait),
		),
	}
}

// For returns the loaders for a given context, or nil when none are attached
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// Middleware attaches a fresh set of loaders to every request so batches never cross requests
func Middleware(doctorRepo repositories.DoctorRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(doctorRepo))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

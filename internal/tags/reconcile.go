package tags

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	internaldb "github.com/tastebase/tastebase/internal/db"
	"github.com/tastebase/tastebase/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	log "github.com/sirupsen/logrus"
)

// Outcome reports the result of one reconciliation call.
//
// A non-empty Errors list means the whole operation was rejected and nothing
// changed; CurrentTags then echoes the unchanged association list. Warnings
// report requested changes that were skipped as redundant, or post-apply
// reads that failed, without blocking the rest of the operation.
type Outcome struct {
	AddedTags   []models.Tag `json:"added_tags"`
	RemovedTags []models.Tag `json:"removed_tags"`
	CurrentTags []models.Tag `json:"current_tags"`
	Warnings    []string     `json:"warnings"`
	Errors      []string     `json:"errors"`
}

// Failed reports whether the operation was rejected.
func (o *Outcome) Failed() bool {
	return len(o.Errors) > 0
}

// Engine applies tag add/remove sets against recipes atomically, keeping each
// tag's usage counter in step with its association rows.
type Engine struct {
	db *gorm.DB // Database handle for associations and counters.
}

// NewEngine constructs a reconciliation engine.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Reconcile applies the requested tag changes to a recipe as one atomic unit.
//
// Business-rule violations (conflicting IDs, unknown tag IDs, unknown recipe)
// and storage failures during the apply step are returned inside
// Outcome.Errors; the method itself never returns an error. Removes are
// applied before adds. On PostgreSQL the affected tag rows are locked FOR
// UPDATE for the duration of the transaction to serialize concurrent calls
// touching the same tags; SQLite serializes writers on its own.
func (e *Engine) Reconcile(ctx context.Context, recipeID uint64, addIDs, removeIDs []uint64) Outcome {
	var out Outcome
	if e == nil || e.db == nil {
		out.Errors = append(out.Errors, "tag engine not initialized")
		return out
	}

	addSet := dedupe(addIDs)
	removeSet := dedupe(removeIDs)

	// Conflict detection has priority over existence validation: an ID
	// requested for both add and remove rejects the call even if it is unknown.
	if conflicts := intersect(addSet, removeSet); len(conflicts) > 0 {
		out.Errors = append(out.Errors, fmt.Sprintf("cannot add and remove the same tag: %s", joinIDs(conflicts)))
		out.CurrentTags = e.currentTagsBestEffort(ctx, recipeID)
		return out
	}

	var recipe models.Recipe
	if errFind := e.db.WithContext(ctx).First(&recipe, recipeID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			out.Errors = append(out.Errors, fmt.Sprintf("recipe not found: %d", recipeID))
		} else {
			out.Errors = append(out.Errors, fmt.Sprintf("load recipe: %v", errFind))
		}
		return out
	}

	currentIDs, errCurrent := e.listAssociations(ctx, recipeID)
	if errCurrent != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("load tag associations: %v", errCurrent))
		return out
	}

	// Existence validation is all-or-nothing across both sets combined.
	requested := union(addSet, removeSet)
	known, errKnown := e.loadTags(ctx, requested)
	if errKnown != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("load tags: %v", errKnown))
		return out
	}
	var missing []uint64
	for _, id := range requested {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sortIDs(missing)
		out.Errors = append(out.Errors, fmt.Sprintf("unknown tag ids: %s", joinIDs(missing)))
		out.CurrentTags = e.currentTagsBestEffort(ctx, recipeID)
		return out
	}

	var toAdd, toRemove []uint64
	for _, id := range addSet {
		if _, present := currentIDs[id]; present {
			out.Warnings = append(out.Warnings, fmt.Sprintf("tag %d is already associated and was skipped", id))
			continue
		}
		toAdd = append(toAdd, id)
	}
	for _, id := range removeSet {
		if _, present := currentIDs[id]; !present {
			out.Warnings = append(out.Warnings, fmt.Sprintf("tag %d is not associated and was skipped", id))
			continue
		}
		toRemove = append(toRemove, id)
	}

	if len(toAdd) > 0 || len(toRemove) > 0 {
		errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if !internaldb.IsSQLite(tx) {
				affected := append(append([]uint64{}, toRemove...), toAdd...)
				var locked []models.Tag
				if errLock := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("id IN ?", affected).Find(&locked).Error; errLock != nil {
					return fmt.Errorf("lock tag rows: %w", errLock)
				}
			}

			for _, id := range toRemove {
				if errDelete := tx.Where("recipe_id = ? AND tag_id = ?", recipeID, id).
					Delete(&models.RecipeTag{}).Error; errDelete != nil {
					return fmt.Errorf("remove tag %d: %w", id, errDelete)
				}
				if errCount := tx.Model(&models.Tag{}).Where("id = ?", id).
					UpdateColumn("usage_count", gorm.Expr(
						"CASE WHEN usage_count > 0 THEN usage_count - 1 ELSE 0 END",
					)).Error; errCount != nil {
					return fmt.Errorf("decrement usage for tag %d: %w", id, errCount)
				}
			}

			for _, id := range toAdd {
				if errCreate := tx.Create(&models.RecipeTag{RecipeID: recipeID, TagID: id}).Error; errCreate != nil {
					return fmt.Errorf("add tag %d: %w", id, errCreate)
				}
				if errCount := tx.Model(&models.Tag{}).Where("id = ?", id).
					UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; errCount != nil {
					return fmt.Errorf("increment usage for tag %d: %w", id, errCount)
				}
			}
			return nil
		})
		if errTx != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("apply tag changes: %v", errTx))
			out.CurrentTags = e.currentTagsBestEffort(ctx, recipeID)
			return out
		}
	}

	for _, id := range toAdd {
		out.AddedTags = append(out.AddedTags, known[id])
	}
	for _, id := range toRemove {
		out.RemovedTags = append(out.RemovedTags, known[id])
	}
	sortTags(out.AddedTags)
	sortTags(out.RemovedTags)

	current, errReload := e.CurrentTags(ctx, recipeID)
	if errReload != nil {
		// The transaction has already committed. A failed reload must not
		// read as a rejection, so it is reported as a warning alongside the
		// applied sets.
		log.WithError(errReload).WithField("recipe_id", recipeID).Warn("reload tag associations after apply failed")
		out.Warnings = append(out.Warnings, fmt.Sprintf("reload tag associations: %v", errReload))
		return out
	}
	out.CurrentTags = current
	return out
}

// currentTagsBestEffort echoes the recipe's unchanged tag list on rejected
// operations. A failed read leaves the list empty rather than masking the
// rejection cause.
func (e *Engine) currentTagsBestEffort(ctx context.Context, recipeID uint64) []models.Tag {
	current, errCurrent := e.CurrentTags(ctx, recipeID)
	if errCurrent != nil {
		return nil
	}
	return current
}

// CurrentTags returns the recipe's associated tags ordered by name.
func (e *Engine) CurrentTags(ctx context.Context, recipeID uint64) ([]models.Tag, error) {
	if e == nil || e.db == nil {
		return nil, fmt.Errorf("tags: engine not initialized")
	}
	var rows []models.Tag
	errFind := e.db.WithContext(ctx).
		Joins("JOIN recipe_tags ON recipe_tags.tag_id = tags.id").
		Where("recipe_tags.recipe_id = ?", recipeID).
		Order("tags.name ASC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("tags: list for recipe %d: %w", recipeID, errFind)
	}
	return rows, nil
}

// listAssociations loads the recipe's current tag ID set.
func (e *Engine) listAssociations(ctx context.Context, recipeID uint64) (map[uint64]struct{}, error) {
	var rows []models.RecipeTag
	if errFind := e.db.WithContext(ctx).Where("recipe_id = ?", recipeID).Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	ids := make(map[uint64]struct{}, len(rows))
	for _, row := range rows {
		ids[row.TagID] = struct{}{}
	}
	return ids, nil
}

// loadTags fetches the requested tags keyed by ID.
func (e *Engine) loadTags(ctx context.Context, ids []uint64) (map[uint64]models.Tag, error) {
	found := make(map[uint64]models.Tag, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var rows []models.Tag
	if errFind := e.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	for _, row := range rows {
		found[row.ID] = row
	}
	return found, nil
}

// dedupe collapses repeats and returns the IDs in ascending order.
func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

// intersect returns the IDs present in both sorted sets.
func intersect(a, b []uint64) []uint64 {
	inB := make(map[uint64]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	var out []uint64
	for _, id := range a {
		if _, ok := inB[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// union merges two deduplicated sets into one sorted slice.
func union(a, b []uint64) []uint64 {
	merged := make([]uint64, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return dedupe(merged)
}

func sortIDs(ids []uint64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func sortTags(tags []models.Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
}

// joinIDs renders IDs as a comma-separated list for error messages.
func joinIDs(ids []uint64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(id, 10))
	}
	return strings.Join(parts, ", ")
}

package importer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/services"
	"moneta/internal/suggest"
)

// Result summarizes one import run. Warnings carry per-row problems that
// skipped a record without failing the whole run.
type Result struct {
	Created  int      `json:"created"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings"`
}

// Importer translates parsed records into ledger writes. Account names must
// resolve to existing accounts; categories and tags are created on demand.
type Importer struct {
	db           *gorm.DB
	transactions services.TransactionServicer
	splits       services.SplitServicer
	categories   services.CategoryServicer
	tags         services.TagServicer
	suggest      *suggest.Client
}

// New creates an Importer. suggestClient may be nil to disable category
// suggestions.
func New(db *gorm.DB, transactions services.TransactionServicer, splits services.SplitServicer, categories services.CategoryServicer, tags services.TagServicer, suggestClient *suggest.Client) *Importer {
	return &Importer{
		db:           db,
		transactions: transactions,
		splits:       splits,
		categories:   categories,
		tags:         tags,
		suggest:      suggestClient,
	}
}

// ImportCSV parses and imports a CSV file for the owner. Malformed files
// fail as a whole; rows that parse but cannot be resolved are skipped with
// a warning.
func (imp *Importer) ImportCSV(ctx context.Context, ownerID string, r io.Reader) (*Result, error) {
	records, err := ParseCSV(r)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return imp.Import(ctx, ownerID, records)
}

// Import writes the given records into the ledger.
func (imp *Importer) Import(ctx context.Context, ownerID string, records []Record) (*Result, error) {
	resolver, err := imp.newResolver(ownerID)
	if err != nil {
		return nil, err
	}

	result := &Result{Warnings: []string{}}

	// Transfer rows are schema-valid but carry only one side of the pair;
	// without a counterparty account they are skipped, not failed.
	imported := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Type == models.TransactionTypeTransfer {
			result.skip(fmt.Errorf("%q (%s): transfer rows name no counterparty account and are skipped; recreate the transfer manually",
				rec.Description, rec.Date.Format(dateFormat)))
			continue
		}
		imported = append(imported, rec)
	}

	singles, groups, order := groupRecords(imported)

	for _, rec := range singles {
		if err := imp.importSingle(ctx, ownerID, resolver, rec); err != nil {
			result.skip(err)
			continue
		}
		result.Created++
	}
	for _, key := range order {
		if err := imp.importGroup(ctx, ownerID, resolver, key, groups[key]); err != nil {
			result.skip(err)
			continue
		}
		result.Created++
	}

	logger.Get().Infow("import finished",
		"owner_id", ownerID,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (r *Result) skip(err error) {
	r.Skipped++
	r.Warnings = append(r.Warnings, err.Error())
}

// groupRecords separates standalone rows from split groups, preserving the
// order in which each group first appears.
func groupRecords(records []Record) (singles []Record, groups map[string][]Record, order []string) {
	groups = make(map[string][]Record)
	for _, rec := range records {
		if rec.SplitGroup == "" {
			singles = append(singles, rec)
			continue
		}
		if _, seen := groups[rec.SplitGroup]; !seen {
			order = append(order, rec.SplitGroup)
		}
		groups[rec.SplitGroup] = append(groups[rec.SplitGroup], rec)
	}
	return singles, groups, order
}

func (imp *Importer) importSingle(ctx context.Context, ownerID string, resolver *nameResolver, rec Record) error {
	accountID, err := resolver.resolveAccount(rec.Account)
	if err != nil {
		return fmt.Errorf("%q (%s): %w", rec.Description, rec.Date.Format(dateFormat), err)
	}

	categoryID, err := imp.resolveCategory(ctx, ownerID, resolver, rec)
	if err != nil {
		return fmt.Errorf("%q (%s): %w", rec.Description, rec.Date.Format(dateFormat), err)
	}

	tagIDs, err := imp.resolveTags(ownerID, rec.Tags)
	if err != nil {
		return fmt.Errorf("%q (%s): %w", rec.Description, rec.Date.Format(dateFormat), err)
	}

	_, err = imp.transactions.CreateTransaction(ownerID, accountID, categoryID,
		rec.Type, rec.Amount, rec.Description, rec.Notes, rec.Date, tagIDs, nil)
	if err != nil {
		return fmt.Errorf("%q (%s): %w", rec.Description, rec.Date.Format(dateFormat), err)
	}
	return nil
}

// importGroup turns the rows of one split group into a single split
// transaction. Every row must agree on date, type, and account.
func (imp *Importer) importGroup(ctx context.Context, ownerID string, resolver *nameResolver, key string, rows []Record) error {
	head := rows[0]
	for _, rec := range rows[1:] {
		if !rec.Date.Equal(head.Date) || rec.Type != head.Type || !strings.EqualFold(rec.Account, head.Account) {
			return fmt.Errorf("split group %q: rows disagree on date, type, or account", key)
		}
	}

	accountID, err := resolver.resolveAccount(head.Account)
	if err != nil {
		return fmt.Errorf("split group %q: %w", key, err)
	}

	var total int64
	items := make([]services.SplitItem, 0, len(rows))
	for _, rec := range rows {
		categoryID, err := imp.resolveCategory(ctx, ownerID, resolver, rec)
		if err != nil {
			return fmt.Errorf("split group %q: %w", key, err)
		}
		tagIDs, err := imp.resolveTags(ownerID, rec.Tags)
		if err != nil {
			return fmt.Errorf("split group %q: %w", key, err)
		}
		total += rec.Amount
		items = append(items, services.SplitItem{
			Amount:      rec.Amount,
			Description: rec.Description,
			CategoryID:  categoryID,
			Notes:       rec.Notes,
			TagIDs:      tagIDs,
		})
	}

	_, err = imp.splits.CreateSplit(ownerID, accountID, head.Type, total,
		head.Description, head.Notes, head.Date, items)
	if err != nil {
		return fmt.Errorf("split group %q: %w", key, err)
	}
	return nil
}

// resolveCategory maps a record to a category ID. A named category is
// resolved or created; an empty one may be filled by the suggestion service
// when it points at an existing category.
func (imp *Importer) resolveCategory(ctx context.Context, ownerID string, resolver *nameResolver, rec Record) (*string, error) {
	name := rec.Category
	if name == "" {
		suggestion := imp.suggest.Categorize(ctx, rec.Description, &rec.Amount)
		if suggestion == nil {
			return nil, nil
		}
		if id, ok := resolver.lookupCategory(suggestion.Category); ok {
			return &id, nil
		}
		return nil, nil
	}

	if id, ok := resolver.lookupCategory(name); ok {
		return &id, nil
	}
	category, err := imp.categories.CreateCategory(ownerID, name, "", nil)
	if err != nil {
		return nil, fmt.Errorf("creating category %q: %w", name, err)
	}
	resolver.addCategory(category)
	return &category.ID, nil
}

func (imp *Importer) resolveTags(ownerID string, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		tag, err := imp.tags.FindOrCreateTag(imp.db, ownerID, name)
		if err != nil {
			return nil, fmt.Errorf("resolving tag %q: %w", name, err)
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// nameResolver matches account and category names case-insensitively, first
// by exact fold, then by unique substring.
type nameResolver struct {
	accounts   []models.Account
	categories []models.Category
}

func (imp *Importer) newResolver(ownerID string) (*nameResolver, error) {
	resolver := &nameResolver{}
	if err := imp.db.Where("owner_id = ?", ownerID).Find(&resolver.accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := imp.db.Where("owner_id = ?", ownerID).Find(&resolver.categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return resolver, nil
}

func (r *nameResolver) resolveAccount(name string) (string, error) {
	folded := strings.ToLower(name)

	for _, account := range r.accounts {
		if strings.ToLower(account.Name) == folded {
			return account.ID, nil
		}
	}

	var matched []string
	for _, account := range r.accounts {
		if strings.Contains(strings.ToLower(account.Name), folded) {
			matched = append(matched, account.ID)
		}
	}
	switch len(matched) {
	case 1:
		return matched[0], nil
	case 0:
		return "", fmt.Errorf("no account matches %q", name)
	default:
		return "", fmt.Errorf("account name %q is ambiguous", name)
	}
}

func (r *nameResolver) lookupCategory(name string) (string, bool) {
	folded := strings.ToLower(name)

	for _, category := range r.categories {
		if strings.ToLower(category.Name) == folded {
			return category.ID, true
		}
	}

	var matched []string
	for _, category := range r.categories {
		if strings.Contains(strings.ToLower(category.Name), folded) {
			matched = append(matched, category.ID)
		}
	}
	if len(matched) == 1 {
		return matched[0], true
	}
	return "", false
}

func (r *nameResolver) addCategory(category *models.Category) {
	r.categories = append(r.categories, *category)
}

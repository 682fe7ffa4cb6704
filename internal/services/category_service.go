package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// maxCategoryDepth bounds the ancestor walk during reparenting. The tree is
// a forest, so the walk terminates anyway; the bound guards against data
// corrupted outside the service.
const maxCategoryDepth = 64

// categoryService handles the per-owner category forest.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category, optionally under a parent.
func (s *categoryService) CreateCategory(ownerID, name, color string, parentID *string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategoryName
	}

	if parentID != nil {
		if err := checkCategoryOwnership(s.db, ownerID, *parentID); err != nil {
			if errors.Is(err, apperrors.ErrCategoryNotFound) {
				return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
			}
			return nil, err
		}
	}

	category := &models.Category{
		OwnerID:  ownerID,
		Name:     name,
		Color:    color,
		ParentID: parentID,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetOwnerCategories retrieves a paginated flat list of an owner's categories.
func (s *categoryService) GetOwnerCategories(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Category{}).Where("owner_id = ?", ownerID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).Order("name").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryHierarchy returns the owner's categories as a nested forest.
// The tree is assembled in memory from the flat table; it is a view, not
// separately maintained state.
func (s *categoryService) GetCategoryHierarchy(ownerID string) ([]*models.CategoryNode, error) {
	var categories []models.Category
	if err := s.db.Where("owner_id = ?", ownerID).Order("name").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	nodes := make(map[string]*models.CategoryNode, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &models.CategoryNode{Category: categories[i], Nodes: []*models.CategoryNode{}}
	}

	roots := []*models.CategoryNode{}
	for i := range categories {
		node := nodes[categories[i].ID]
		if categories[i].ParentID != nil {
			if parent, ok := nodes[*categories[i].ParentID]; ok {
				parent.Nodes = append(parent.Nodes, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// GetCategoryByID retrieves a category by ID for a specific owner.
func (s *categoryService) GetCategoryByID(ownerID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND owner_id = ?", categoryID, ownerID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory applies a partial update. A parent change walks the
// ancestor chain of the proposed parent inside the same database transaction
// as the write: if the walk reaches the category being moved, the move would
// create a cycle and is rejected with the tree unchanged.
func (s *categoryService) UpdateCategory(ownerID, categoryID string, fields CategoryUpdateFields) (*models.Category, error) {
	category, err := s.GetCategoryByID(ownerID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" && *fields.Name != category.Name {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("owner_id = ? AND name = ? AND id <> ?", ownerID, *fields.Name, categoryID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateCategoryName
		}
		updates["name"] = *fields.Name
	}
	if fields.Color != nil {
		updates["color"] = *fields.Color
	}
	if fields.ClearParent {
		updates["parent_id"] = nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if fields.ParentID != nil {
			if *fields.ParentID == categoryID {
				return apperrors.ErrSelfParentCategory
			}
			if err := checkCategoryOwnership(tx, ownerID, *fields.ParentID); err != nil {
				if errors.Is(err, apperrors.ErrCategoryNotFound) {
					return apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
				}
				return err
			}
			if err := ensureNoCycle(tx, ownerID, categoryID, *fields.ParentID); err != nil {
				return err
			}
			updates["parent_id"] = *fields.ParentID
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(category).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCategoryByID(ownerID, categoryID)
}

// ensureNoCycle walks upward from the proposed parent. The structure is a
// forest, so an O(depth) ancestor walk suffices; no full-graph search is
// needed. Runs inside the caller's transaction so a concurrent reparenting
// cannot slip a cycle past the check.
func ensureNoCycle(tx *gorm.DB, ownerID, categoryID, proposedParentID string) error {
	current := proposedParentID
	for depth := 0; depth < maxCategoryDepth; depth++ {
		if current == categoryID {
			return apperrors.ErrCategoryCycle
		}
		var parent struct{ ParentID *string }
		if err := tx.Model(&models.Category{}).
			Where("id = ? AND owner_id = ?", current, ownerID).
			Select("parent_id").
			Scan(&parent).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
	return apperrors.ErrCategoryCycle
}

// DeleteCategory removes a category. Categories still referenced by
// transactions require an explicit reassignment target; children are
// promoted to the deleted category's own parent (or to root).
func (s *categoryService) DeleteCategory(ownerID, categoryID string, reassignTo *string) error {
	category, err := s.GetCategoryByID(ownerID, categoryID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// The in-use check and the reassignment share the delete's
		// transaction so a row categorized concurrently cannot end up
		// pointing at the deleted category.
		var txCount int64
		if err := tx.Model(&models.Transaction{}).
			Where("owner_id = ? AND category_id = ?", ownerID, categoryID).
			Count(&txCount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if txCount > 0 {
			if reassignTo == nil {
				return apperrors.ErrCategoryInUse
			}
			if *reassignTo == categoryID {
				return apperrors.ErrReassignTargetInvalid
			}
			if err := checkCategoryOwnership(tx, ownerID, *reassignTo); err != nil {
				return err
			}
			if err := tx.Model(&models.Transaction{}).
				Where("owner_id = ? AND category_id = ?", ownerID, categoryID).
				UpdateColumn("category_id", *reassignTo).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		// Promote children one level before the row goes away.
		if err := tx.Model(&models.Category{}).
			Where("owner_id = ? AND parent_id = ?", ownerID, categoryID).
			UpdateColumn("parent_id", category.ParentID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func (app *testApp) createCategory(t *testing.T, token, name, parentID string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q}`, name)
	if parentID != "" {
		body = fmt.Sprintf(`{"name":%q,"parent_id":%q}`, name, parentID)
	}
	rec := app.request("POST", "/api/v1/categories", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["category"].(map[string]interface{})["id"].(string)
}

func TestCategoryFlow_Hierarchy(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "forest@test.com", "password123")

	foodID := app.createCategory(t, token, "Food", "")
	app.createCategory(t, token, "Restaurants", foodID)
	app.createCategory(t, token, "Transport", "")

	rec := app.request("GET", "/api/v1/categories/hierarchy", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	roots := parseJSON(t, rec)["categories"].([]interface{})
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}

	var food map[string]interface{}
	for _, r := range roots {
		node := r.(map[string]interface{})
		if node["name"] == "Food" {
			food = node
		}
	}
	if food == nil {
		t.Fatal("expected Food among the roots")
	}
	children := food["children"].([]interface{})
	if len(children) != 1 || children[0].(map[string]interface{})["name"] != "Restaurants" {
		t.Errorf("expected Restaurants nested under Food, got %v", children)
	}
}

func TestCategoryFlow_CycleRejected(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "cycle@test.com", "password123")

	aID := app.createCategory(t, token, "A", "")
	bID := app.createCategory(t, token, "B", aID)
	cID := app.createCategory(t, token, "C", bID)

	// Reparenting A under its own descendant would close a loop.
	rec := app.request("PUT", "/api/v1/categories/"+aID,
		fmt.Sprintf(`{"parent_id":%q}`, cID), token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCategoryFlow_DeleteInUseRequiresReassignment(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "reassign@test.com", "password123")
	accountID := app.createAccount(t, token, "Checking", 0)

	oldID := app.createCategory(t, token, "Old", "")
	newID := app.createCategory(t, token, "New", "")
	app.createTransaction(t, token, accountID, "expense", 500, "2025-01-10", oldID)

	rec := app.request("DELETE", "/api/v1/categories/"+oldID, "", token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 without a reassignment target, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("DELETE", "/api/v1/categories/"+oldID+"?reassign_to="+newID, "", token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	// The transaction now carries the replacement category.
	rec = app.request("GET", "/api/v1/transactions", "", token)
	rows := parseJSON(t, rec)["data"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(rows))
	}
	if got := rows[0].(map[string]interface{})["category_id"]; got != newID {
		t.Errorf("expected category reassigned to %s, got %v", newID, got)
	}
}

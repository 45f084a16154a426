package service

import (
	"testing"

	"github.com/wellcart-next/internal/constants"
	"github.com/wellcart-next/internal/models"
	"github.com/wellcart-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupProductServiceTest(t *testing.T) *ProductService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(testDSN(t)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate product failed: %v", err)
	}
	return NewProductService(repository.NewProductRepository(db))
}

func createProduct(t *testing.T, svc *ProductService, input ProductInput) *models.Product {
	t.Helper()
	product, err := svc.Create(input)
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func bottleInput(sku, name, category string) ProductInput {
	return ProductInput{
		SKU:      sku,
		Name:     name,
		Category: category,
		Price:    decimal.NewFromInt(20),
		BuyLink:  "https://portal.example.com/buybuttons/us0123/buy/" + sku,
	}
}

func TestProductCreateAndGetBySKU(t *testing.T) {
	svc := setupProductServiceTest(t)
	createProduct(t, svc, bottleInput("WB-1", "Alpine Bottle", "Bottles"))

	product, err := svc.GetBySKU("WB-1")
	if err != nil {
		t.Fatalf("get by sku failed: %v", err)
	}
	if product.Name != "Alpine Bottle" {
		t.Fatalf("name want Alpine Bottle got %q", product.Name)
	}
	if product.Status != constants.ProductStatusInStore {
		t.Fatalf("default status want %q got %q", constants.ProductStatusInStore, product.Status)
	}
}

func TestProductCreateDuplicateSKU(t *testing.T) {
	svc := setupProductServiceTest(t)
	createProduct(t, svc, bottleInput("WB-1", "Alpine Bottle", "Bottles"))

	if _, err := svc.Create(bottleInput("WB-1", "Other", "Bottles")); err != ErrSKUExists {
		t.Fatalf("want ErrSKUExists got %v", err)
	}
}

func TestProductListByCategoryAndAll(t *testing.T) {
	svc := setupProductServiceTest(t)
	createProduct(t, svc, bottleInput("WB-1", "Alpine Bottle", "Bottles"))
	createProduct(t, svc, bottleInput("SP-1", "Hydro Mix", "Supplements"))

	bottles, total, err := svc.ListPublic("Bottles", "", "", 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(bottles) != 1 {
		t.Fatalf("bottles want 1 got %d", total)
	}

	all, total, err := svc.ListPublic("All", "", "", 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("all want 2 got %d", total)
	}
}

func TestProductSearchCaseInsensitive(t *testing.T) {
	svc := setupProductServiceTest(t)
	createProduct(t, svc, bottleInput("WB-1", "Alpine Bottle", "Bottles"))
	createProduct(t, svc, bottleInput("SP-1", "Hydro Mix", "Supplements"))

	found, total, err := svc.ListPublic("", "ALPINE", "", 1, 20)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 1 || found[0].SKU != "WB-1" {
		t.Fatalf("search want WB-1 got total=%d", total)
	}
}

func TestProductListCategoriesPrefixedWithAll(t *testing.T) {
	svc := setupProductServiceTest(t)
	createProduct(t, svc, bottleInput("WB-1", "Alpine Bottle", "Bottles"))
	createProduct(t, svc, bottleInput("SP-1", "Hydro Mix", "Supplements"))

	categories, err := svc.ListCategories()
	if err != nil {
		t.Fatalf("list categories failed: %v", err)
	}
	if len(categories) != 3 || categories[0] != "All" {
		t.Fatalf("categories want [All Bottles Supplements] got %v", categories)
	}
}

func TestProductListByStatus(t *testing.T) {
	svc := setupProductServiceTest(t)
	createProduct(t, svc, bottleInput("WB-1", "Alpine Bottle", "Bottles"))
	sold := createProduct(t, svc, bottleInput("WB-2", "Summit Bottle", "Bottles"))
	if _, err := svc.ChangeStatus(sold.ID, constants.ProductStatusOutOfStock); err != nil {
		t.Fatalf("change status failed: %v", err)
	}

	out, total, err := svc.ListPublic("", "", constants.ProductStatusOutOfStock, 1, 20)
	if err != nil {
		t.Fatalf("list by status failed: %v", err)
	}
	if total != 1 || out[0].SKU != "WB-2" {
		t.Fatalf("out of stock want WB-2 got total=%d", total)
	}

	// 状态与分类、搜索叠加，不互相覆盖
	combined, total, err := svc.ListPublic("Bottles", "summit", constants.ProductStatusOutOfStock, 1, 20)
	if err != nil {
		t.Fatalf("list by status+category+search failed: %v", err)
	}
	if total != 1 || combined[0].SKU != "WB-2" {
		t.Fatalf("combined filter want WB-2 got total=%d", total)
	}
	if _, total, err = svc.ListPublic("Supplements", "", constants.ProductStatusOutOfStock, 1, 20); err != nil || total != 0 {
		t.Fatalf("mismatched category should return 0, got total=%d err=%v", total, err)
	}

	if _, _, err := svc.ListPublic("", "", "bogus", 1, 20); err != ErrStatusInvalid {
		t.Fatalf("want ErrStatusInvalid got %v", err)
	}
}

func TestProductGroupsClusterVariants(t *testing.T) {
	svc := setupProductServiceTest(t)
	blue := bottleInput("WB-B", "Alpine Bottle Blue", "Bottles")
	blue.GroupName = "Alpine Bottle"
	blue.Color = "Blue"
	red := bottleInput("WB-R", "Alpine Bottle Red", "Bottles")
	red.GroupName = "Alpine Bottle"
	red.Color = "Red"
	solo := bottleInput("SP-1", "Hydro Mix", "Supplements")
	createProduct(t, svc, blue)
	createProduct(t, svc, red)
	createProduct(t, svc, solo)

	groups, err := svc.ListGroups()
	if err != nil {
		t.Fatalf("list groups failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("group count want 1 got %d", len(groups))
	}
	if groups[0].GroupName != "Alpine Bottle" || len(groups[0].Variants) != 2 {
		t.Fatalf("group want Alpine Bottle with 2 variants got %q/%d", groups[0].GroupName, len(groups[0].Variants))
	}
	for _, variant := range groups[0].Variants {
		if variant.BuyLink == "" {
			t.Fatalf("variant %s missing buy link", variant.SKU)
		}
	}
}

func TestProductUpdate(t *testing.T) {
	svc := setupProductServiceTest(t)
	product := createProduct(t, svc, bottleInput("WB-1", "Alpine Bottle", "Bottles"))

	input := bottleInput("WB-1", "Alpine Bottle 32oz", "Bottles")
	input.Price = decimal.RequireFromString("24.50")
	updated, err := svc.Update(product.ID, input)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Alpine Bottle 32oz" {
		t.Fatalf("name want Alpine Bottle 32oz got %q", updated.Name)
	}
	if got := updated.PriceAmount.String(); got != "24.50" {
		t.Fatalf("price want 24.50 got %s", got)
	}
}

func TestProductDeleteThenPublicListExcludes(t *testing.T) {
	svc := setupProductServiceTest(t)
	product := createProduct(t, svc, bottleInput("WB-1", "Alpine Bottle", "Bottles"))

	if err := svc.Delete(product.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.GetBySKU("WB-1"); err != ErrProductNotFound {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
	if err := svc.Delete(product.ID); err != ErrProductNotFound {
		t.Fatalf("second delete want ErrProductNotFound got %v", err)
	}
}

func TestProductInactiveHiddenFromPublic(t *testing.T) {
	svc := setupProductServiceTest(t)
	inactive := false
	input := bottleInput("WB-1", "Alpine Bottle", "Bottles")
	input.IsActive = &inactive
	createProduct(t, svc, input)

	_, total, err := svc.ListPublic("", "", "", 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("public total want 0 got %d", total)
	}

	_, total, err = svc.ListAdmin("", "", "", 1, 20)
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("admin total want 1 got %d", total)
	}
}

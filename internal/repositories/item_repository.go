package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"greenMarketBack/internal/models"
)

// ItemRepository reads and writes marketplace items in a geospatial store.
type ItemRepository struct {
	DB      *sql.DB
	Dialect Dialect
	// Now stamps created_at/updated_at on writes; time.Now when nil.
	Now func() time.Time
}

// NewItemRepository constructs an ItemRepository.
func NewItemRepository(db *sql.DB, dialect Dialect) *ItemRepository {
	return &ItemRepository{DB: db, Dialect: dialect}
}

func (r *ItemRepository) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *ItemRepository) selectColumns() string {
	d := r.Dialect
	return fmt.Sprintf(`SELECT
i.id, i.title, i.description, i.status, i.price, i.quantity,
%s, %s, i.created_at, i.updated_at,
m.id, m.name, m.category,
o.id, o.name, o.verified,
u.id, u.name, u.email`, d.LatitudeExpr("i"), d.LongitudeExpr("i"))
}

const itemJoins = `
FROM items i
LEFT JOIN materials m ON m.id = i.material_id
LEFT JOIN organizations o ON o.id = i.organization_id
JOIN users u ON u.id = i.creator_id`

// FindActiveWithLocation lists ACTIVE items that have a location, newest
// first, with their joined metadata and images.
func (r *ItemRepository) FindActiveWithLocation(ctx context.Context, f ItemFilters) ([]models.Item, error) {
	args := newQueryArgs(r.Dialect)
	where, err := newFilterBuilder(args, "i").build(f.toFilters()...)
	if err != nil {
		return nil, err
	}

	query := r.selectColumns() + itemJoins + where + " ORDER BY i.created_at DESC, i.id"
	if f.Limit > 0 {
		query += " LIMIT " + args.add(f.Limit)
		if f.Offset > 0 {
			query += " OFFSET " + args.add(f.Offset)
		}
	}

	rows, err := r.DB.QueryContext(ctx, query, args.values...)
	if err != nil {
		return nil, classifyStoreError("find active items", err)
	}
	defer rows.Close()

	items := make([]models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, classifyStoreError("scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreError("find active items", err)
	}

	if err := r.attachImages(ctx, itemRefs(items)); err != nil {
		return nil, err
	}
	return items, nil
}

// DistanceQuery returns ACTIVE located items within radiusKm of center,
// nearest first, with the store-computed distance in kilometers. A limit of
// zero means no limit.
func (r *ItemRepository) DistanceQuery(ctx context.Context, center models.GeoPoint, radiusKm float64, limit int) ([]models.RankedItem, error) {
	if err := validateEnvelope(center, radiusKm); err != nil {
		return nil, err
	}
	if !r.Dialect.SupportsDistance() {
		return nil, fmt.Errorf("distance query on %s: %w: %w", r.Dialect.Name(), models.ErrStoreUnavailable, models.ErrGeoUnavailable)
	}

	args := newQueryArgs(r.Dialect)
	distance := r.Dialect.DistanceKmExpr(args, "i", center)
	where, err := newFilterBuilder(args, "i").build(
		StatusEquals{Status: models.ItemStatusActive},
		LocationNotNull{},
		WithinRadius{Center: center, RadiusKm: radiusKm},
	)
	if err != nil {
		return nil, err
	}

	query := r.selectColumns() + ",\n" + distance + " AS distance" + itemJoins + where + " ORDER BY distance ASC"
	if limit > 0 {
		query += " LIMIT " + args.add(limit)
	}

	rows, err := r.DB.QueryContext(ctx, query, args.values...)
	if err != nil {
		return nil, classifyStoreError("distance query", err)
	}
	defer rows.Close()

	ranked := make([]models.RankedItem, 0)
	for rows.Next() {
		var dist sql.NullFloat64
		item, err := scanItem(rows, &dist)
		if err != nil {
			return nil, classifyStoreError("scan ranked item", err)
		}
		if !dist.Valid {
			return nil, fmt.Errorf("distance query: %w: %w: no distance for item %s", models.ErrStoreUnavailable, models.ErrGeoUnavailable, item.ID)
		}
		ri := models.RankedItem{Item: item, Distance: dist.Float64}
		if item.Location != nil {
			ri.Point = *item.Location
		}
		ranked = append(ranked, ri)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreError("distance query", err)
	}

	refs := make([]*models.Item, 0, len(ranked))
	for i := range ranked {
		refs = append(refs, &ranked[i].Item)
	}
	if err := r.attachImages(ctx, refs); err != nil {
		return nil, err
	}
	return ranked, nil
}

// ActiveIDs reports which of ids are ACTIVE items with a location.
func (r *ItemRepository) ActiveIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	active := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return active, nil
	}

	args := newQueryArgs(r.Dialect)
	where, err := newFilterBuilder(args, "i").build(
		StatusEquals{Status: models.ItemStatusActive},
		LocationNotNull{},
		IDIn{IDs: ids},
	)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, "SELECT i.id FROM items i"+where, args.values...)
	if err != nil {
		return nil, classifyStoreError("active item ids", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classifyStoreError("scan item id", err)
		}
		active[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreError("active item ids", err)
	}
	return active, nil
}

// GetByID fetches one item regardless of status.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (models.Item, error) {
	args := newQueryArgs(r.Dialect)
	query := r.selectColumns() + itemJoins + " WHERE i.id = " + args.add(id)

	row := r.DB.QueryRowContext(ctx, query, args.values...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, models.ErrNoRecord
	}
	if err != nil {
		return models.Item{}, classifyStoreError("get item", err)
	}
	if err := r.attachImages(ctx, []*models.Item{&item}); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

// Create inserts an item and returns it as stored.
func (r *ItemRepository) Create(ctx context.Context, in models.NewItem) (models.Item, error) {
	if in.Status == "" {
		in.Status = models.ItemStatusActive
	}
	if !in.Status.Valid() {
		return models.Item{}, fmt.Errorf("create item: %w: unknown status %q", models.ErrQueryError, in.Status)
	}
	if in.Location != nil && !in.Location.InRange() {
		return models.Item{}, fmt.Errorf("create item: %w: location out of range", models.ErrQueryError)
	}

	id := uuid.NewString()
	now := r.now()
	args := newQueryArgs(r.Dialect)

	cols := []string{"id", "title", "description", "status", "price", "quantity",
		"material_id", "organization_id", "creator_id", "created_at", "updated_at"}
	values := []string{
		args.add(id),
		args.add(in.Title),
		args.add(in.Description),
		args.add(string(in.Status)),
		args.add(nullFloat(in.Price)),
		args.add(in.Quantity),
		args.add(nullString(in.MaterialID)),
		args.add(nullString(in.OrganizationID)),
		args.add(in.CreatorID),
		args.add(now),
		args.add(now),
	}
	cols = append(cols, r.Dialect.LocationColumns()...)
	values = append(values, r.Dialect.LocationValues(args, in.Location)...)

	query := fmt.Sprintf("INSERT INTO items (%s) VALUES (%s)", strings.Join(cols, ", "), strings.Join(values, ", "))
	if _, err := r.DB.ExecContext(ctx, query, args.values...); err != nil {
		return models.Item{}, classifyStoreError("create item", err)
	}
	return r.GetByID(ctx, id)
}

// AddImage attaches an image to an item.
func (r *ItemRepository) AddImage(ctx context.Context, itemID string, in models.NewItemImage) (models.ItemImage, error) {
	img := models.ItemImage{
		ID:        uuid.NewString(),
		URL:       in.URL,
		AltText:   in.AltText,
		IsPrimary: in.IsPrimary,
		CreatedAt: r.now(),
	}
	args := newQueryArgs(r.Dialect)
	query := fmt.Sprintf(`INSERT INTO item_images (id, item_id, url, alt_text, is_primary, created_at) VALUES (%s, %s, %s, %s, %s, %s)`,
		args.add(img.ID), args.add(itemID), args.add(img.URL), args.add(img.AltText), args.add(img.IsPrimary), args.add(img.CreatedAt))
	if _, err := r.DB.ExecContext(ctx, query, args.values...); err != nil {
		return models.ItemImage{}, classifyStoreError("add item image", err)
	}
	return img, nil
}

// UpdateStatus moves an item to another lifecycle status.
func (r *ItemRepository) UpdateStatus(ctx context.Context, id string, status models.ItemStatus) error {
	if !status.Valid() {
		return fmt.Errorf("update item status: %w: unknown status %q", models.ErrQueryError, status)
	}
	args := newQueryArgs(r.Dialect)
	query := fmt.Sprintf(`UPDATE items SET status = %s, updated_at = %s WHERE id = %s`,
		args.add(string(status)), args.add(r.now()), args.add(id))
	res, err := r.DB.ExecContext(ctx, query, args.values...)
	if err != nil {
		return classifyStoreError("update item status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classifyStoreError("update item status", err)
	}
	if n == 0 {
		return models.ErrNoRecord
	}
	return nil
}

// Ping checks that the store is reachable.
func (r *ItemRepository) Ping(ctx context.Context) error {
	if err := r.DB.PingContext(ctx); err != nil {
		return classifyStoreError("ping", err)
	}
	return nil
}

func (r *ItemRepository) attachImages(ctx context.Context, items []*models.Item) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[string]*models.Item, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		it.Images = make([]models.ItemImage, 0)
		if _, dup := byID[it.ID]; !dup {
			ids = append(ids, it.ID)
		}
		byID[it.ID] = it
	}

	args := newQueryArgs(r.Dialect)
	query := fmt.Sprintf(`SELECT item_id, id, url, alt_text, is_primary, created_at
FROM item_images
WHERE item_id IN (%s)
ORDER BY item_id, is_primary DESC, created_at ASC`, args.list(ids))

	rows, err := r.DB.QueryContext(ctx, query, args.values...)
	if err != nil {
		return classifyStoreError("load item images", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID  string
			img     models.ItemImage
			altText sql.NullString
		)
		if err := rows.Scan(&itemID, &img.ID, &img.URL, &altText, &img.IsPrimary, &img.CreatedAt); err != nil {
			return classifyStoreError("scan item image", err)
		}
		img.AltText = altText.String
		if it, ok := byID[itemID]; ok {
			it.Images = append(it.Images, img)
		}
	}
	if err := rows.Err(); err != nil {
		return classifyStoreError("load item images", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanItem reads the columns produced by selectColumns, followed by extra.
func scanItem(row rowScanner, extra ...interface{}) (models.Item, error) {
	var (
		item                        models.Item
		status                      string
		description                 sql.NullString
		price, lat, lon             sql.NullFloat64
		matID, matName, matCategory sql.NullString
		orgID, orgName              sql.NullString
		orgVerified                 sql.NullBool
		creatorName, creatorEmail   sql.NullString
	)
	dest := []interface{}{
		&item.ID, &item.Title, &description, &status, &price, &item.Quantity,
		&lat, &lon, &item.CreatedAt, &item.UpdatedAt,
		&matID, &matName, &matCategory,
		&orgID, &orgName, &orgVerified,
		&item.Creator.ID, &creatorName, &creatorEmail,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Item{}, err
	}

	item.Description = description.String
	item.Status = models.ItemStatus(status)
	if price.Valid {
		p := price.Float64
		item.Price = &p
	}
	if lat.Valid && lon.Valid {
		item.Location = &models.GeoPoint{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	if matID.Valid {
		item.Material = &models.Material{ID: matID.String, Name: matName.String, Category: matCategory.String}
	}
	if orgID.Valid {
		item.Organization = &models.Organization{ID: orgID.String, Name: orgName.String, Verified: orgVerified.Bool}
	}
	item.Creator.Name = creatorName.String
	item.Creator.Email = creatorEmail.String
	return item, nil
}

func itemRefs(items []models.Item) []*models.Item {
	refs := make([]*models.Item, 0, len(items))
	for i := range items {
		refs = append(refs, &items[i])
	}
	return refs
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: trimmed, Valid: true}
}

package schema

// Commerce returns the shop schema.
func Commerce() *Schema {
	s, err := New(
		&Table{
			Name: Customers,
			Columns: []Column{
				{Field: "id", SQL: "id", Kind: KindInt},
				{Field: "name", SQL: "name", Kind: KindText},
				{Field: "email", SQL: "email", Kind: KindText},
			},
			Relations: []Relation{
				{Name: "orders", From: Customers, To: Orders, FromColumn: "id", ToColumn: "customer_id", Cardinality: Many},
				{Name: "reviews", From: Customers, To: Reviews, FromColumn: "id", ToColumn: "customer_id", Cardinality: Many},
			},
		},
		&Table{
			Name: Products,
			Columns: []Column{
				{Field: "id", SQL: "id", Kind: KindInt},
				{Field: "name", SQL: "name", Kind: KindText},
				{Field: "price", SQL: "price_cents", Kind: KindMoney},
				{Field: "stock", SQL: "stock", Kind: KindInt},
			},
			Relations: []Relation{
				{Name: "items", From: Products, To: OrderItems, FromColumn: "id", ToColumn: "product_id", Cardinality: Many},
				{Name: "reviews", From: Products, To: Reviews, FromColumn: "id", ToColumn: "product_id", Cardinality: Many},
				{Name: "tags", From: Products, To: Tags, FromColumn: "id", ToColumn: "product_id", Cardinality: Many},
			},
		},
		&Table{
			Name: Orders,
			Columns: []Column{
				{Field: "id", SQL: "id", Kind: KindInt},
				{Field: "customer_id", SQL: "customer_id", Kind: KindInt},
				{Field: "created_at", SQL: "created_at", Kind: KindDate},
			},
			Relations: []Relation{
				{Name: "customer", From: Orders, To: Customers, FromColumn: "customer_id", ToColumn: "id", Cardinality: One},
				{Name: "items", From: Orders, To: OrderItems, FromColumn: "id", ToColumn: "order_id", Cardinality: Many},
			},
		},
		&Table{
			Name: OrderItems,
			Columns: []Column{
				{Field: "id", SQL: "id", Kind: KindInt},
				{Field: "order_id", SQL: "order_id", Kind: KindInt},
				{Field: "product_id", SQL: "product_id", Kind: KindInt},
				{Field: "quantity", SQL: "quantity", Kind: KindInt},
			},
			Relations: []Relation{
				{Name: "order", From: OrderItems, To: Orders, FromColumn: "order_id", ToColumn: "id", Cardinality: One},
				{Name: "product", From: OrderItems, To: Products, FromColumn: "product_id", ToColumn: "id", Cardinality: One},
			},
		},
		&Table{
			Name: Reviews,
			Columns: []Column{
				{Field: "id", SQL: "id", Kind: KindInt},
				{Field: "product_id", SQL: "product_id", Kind: KindInt},
				{Field: "customer_id", SQL: "customer_id", Kind: KindInt},
				{Field: "data", SQL: "data", Kind: KindJSON},
			},
			Relations: []Relation{
				{Name: "product", From: Reviews, To: Products, FromColumn: "product_id", ToColumn: "id", Cardinality: One},
				{Name: "customer", From: Reviews, To: Customers, FromColumn: "customer_id", ToColumn: "id", Cardinality: One},
			},
		},
		&Table{
			Name: Tags,
			Columns: []Column{
				{Field: "id", SQL: "id", Kind: KindInt},
				{Field: "product_id", SQL: "product_id", Kind: KindInt},
				{Field: "keywords", SQL: "keywords", Kind: KindTextList},
			},
			Relations: []Relation{
				{Name: "product", From: Tags, To: Products, FromColumn: "product_id", ToColumn: "id", Cardinality: One},
			},
		},
	)
	if err != nil {
		// The definitions above are fixed; a failure here is a programming error.
		panic(err)
	}
	return s
}

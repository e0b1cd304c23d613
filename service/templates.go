package service

// FieldPos registers where one text field is burned onto a template:
// 0-indexed page, point coordinates from the top-left, font size in points.
type FieldPos struct {
	Page int
	X    float64
	Y    float64
	Size float64
}

// ImageBox registers where a raster image (signature) is placed.
type ImageBox struct {
	Page int
	X    float64
	Y    float64
	W    float64
	H    float64
}

// Template is the coordinate table for one agreement layout. The table is
// pure configuration: swapping a template layout means editing the table,
// never the stamping code. Coordinates are calibrated per layout; values are
// burned at fixed positions with generous margins, no wrapping or overflow
// handling.
type Template struct {
	ID                  string
	Pages               int
	Fields              map[string]FieldPos
	SignatureBox        ImageBox
	CounterSignatureBox ImageBox
}

// Registered agreement templates. Page sizes assume A4 (595x842pt).
var templateTable = map[string]*Template{
	"trial": {
		ID:    "trial",
		Pages: 2,
		Fields: map[string]FieldPos{
			"company_name":    {Page: 0, X: 160, Y: 195, Size: 11},
			"contact_name":    {Page: 0, X: 160, Y: 220, Size: 11},
			"contact_email":   {Page: 0, X: 160, Y: 245, Size: 11},
			"billing_address": {Page: 0, X: 160, Y: 270, Size: 10},
			"order_number":    {Page: 0, X: 430, Y: 140, Size: 11},
			"agreement_date":  {Page: 0, X: 430, Y: 165, Size: 11},
			"robot_model":     {Page: 0, X: 160, Y: 370, Size: 11},
			"robot_quantity":  {Page: 0, X: 430, Y: 370, Size: 11},
			"trial_weeks":     {Page: 0, X: 160, Y: 400, Size: 11},
			"weekly_cost":     {Page: 0, X: 430, Y: 400, Size: 11},
			"total_cost":      {Page: 0, X: 430, Y: 430, Size: 12},
			"signer_name":     {Page: 1, X: 120, Y: 600, Size: 11},
			"signed_date":     {Page: 1, X: 120, Y: 625, Size: 11},
		},
		SignatureBox:        ImageBox{Page: 1, X: 120, Y: 470, W: 180, H: 70},
		CounterSignatureBox: ImageBox{Page: 1, X: 350, Y: 470, W: 180, H: 70},
	},
	"service": {
		ID:    "service",
		Pages: 3,
		Fields: map[string]FieldPos{
			"company_name":    {Page: 0, X: 170, Y: 210, Size: 11},
			"contact_name":    {Page: 0, X: 170, Y: 235, Size: 11},
			"contact_email":   {Page: 0, X: 170, Y: 260, Size: 11},
			"billing_address": {Page: 0, X: 170, Y: 285, Size: 10},
			"order_number":    {Page: 0, X: 440, Y: 150, Size: 11},
			"agreement_date":  {Page: 0, X: 440, Y: 175, Size: 11},
			"robot_model":     {Page: 1, X: 140, Y: 180, Size: 11},
			"robot_quantity":  {Page: 1, X: 420, Y: 180, Size: 11},
			"spare_parts_kit": {Page: 1, X: 140, Y: 210, Size: 11},
			"service_months":  {Page: 1, X: 140, Y: 260, Size: 11},
			"monthly_cost":    {Page: 1, X: 420, Y: 260, Size: 11},
			"setup_cost":      {Page: 1, X: 420, Y: 290, Size: 11},
			"total_cost":      {Page: 1, X: 420, Y: 330, Size: 12},
			"signer_name":     {Page: 2, X: 110, Y: 560, Size: 11},
			"signed_date":     {Page: 2, X: 110, Y: 585, Size: 11},
		},
		SignatureBox:        ImageBox{Page: 2, X: 110, Y: 430, W: 180, H: 70},
		CounterSignatureBox: ImageBox{Page: 2, X: 340, Y: 430, W: 180, H: 70},
	},
}

// LookupTemplate returns the coordinate table for a template id.
func LookupTemplate(id string) (*Template, bool) {
	t, ok := templateTable[id]
	return t, ok
}

// TemplateIDs lists the registered template ids.
func TemplateIDs() []string {
	ids := make([]string, 0, len(templateTable))
	for id := range templateTable {
		ids = append(ids, id)
	}
	return ids
}

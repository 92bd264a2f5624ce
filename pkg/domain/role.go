package domain

// Role identifies the semantic kind of a structure element. Roles are free
// strings so callers can bring their own vocabulary; the constants below
// cover the common document model and are what the outline format emits.
type Role = string

const (
	RoleDocument  Role = "document"
	RoleSection   Role = "section"
	RoleParagraph Role = "paragraph"
	RoleHeading   Role = "heading"
	RoleList      Role = "list"
	RoleListItem  Role = "list-item"
	RoleTable     Role = "table"
	RoleTableRow  Role = "table-row"
	RoleFigure    Role = "figure"
	RoleCaption   Role = "caption"
	RoleSpan      Role = "span"
)

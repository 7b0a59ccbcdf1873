package layout

import (
	"card-preview/internal/models"
	"card-preview/internal/preview/inliner"
)

// Node roles the builder emits.
const (
	RoleRoot          = "root"
	RoleBody          = "body"
	RoleAccentBar     = "accent-bar"
	RoleOrnament      = "ornament-circle"
	RolePhoto         = "photo"
	RoleInitials      = "initials"
	RoleInitialsText  = "initials-text"
	RoleBallotBadge   = "ballot-badge"
	RoleBallotNumber  = "ballot-number"
	RoleParty         = "party"
	RoleName          = "name"
	RoleCompositeLine = "composite-line"
	RoleSlogan        = "slogan"
	RoleTitle         = "title"
	RoleCompany       = "company"
	RoleMetaRow       = "meta-row"
	RoleLocation      = "location"
	RoleLocationPin   = "location-pin"
	RoleEngagement    = "engagement"
	RoleFooter        = "footer"
	RoleWordmark      = "wordmark"
	RoleTagline       = "tagline"
)

// Placeholder text for a card without a name.
const (
	CivicNamePlaceholder    = "Candidate"
	StandardNamePlaceholder = "Your Name"
	DefaultBrand            = "linkcard"
)

// Builder turns snapshots into layout trees. The zero value uses DefaultBrand.
type Builder struct {
	Brand string
}

// Build builds with the default brand.
func Build(snap models.CardSnapshot, photo *inliner.Image) *Node {
	return Builder{}.Build(snap, photo)
}

// Build returns a fresh tree for snap. A nil photo renders initials.
func (b Builder) Build(snap models.CardSnapshot, photo *inliner.Image) *Node {
	if snap.Variant() == models.VariantCivic {
		return b.civic(snap, photo)
	}
	return b.standard(snap, photo)
}

func (b Builder) brand() string {
	if isBlank(b.Brand) {
		return DefaultBrand
	}
	return b.Brand
}

func (b Builder) civic(snap models.CardSnapshot, photo *inliner.Image) *Node {
	t := civicTheme

	left := &Node{
		Role:      "left-column",
		Direction: Column,
		Align:     AlignCenter,
		Gap:       24,
		Children:  []*Node{avatar(snap.Name, photo, 248, t)},
	}
	if !isBlank(snap.BallotNumber) {
		left.Children = append(left.Children, &Node{
			Role:       RoleBallotBadge,
			Direction:  Row,
			Justify:    JustifyCenter,
			Align:      AlignCenter,
			Padding:    Symmetric(10, 32),
			Radius:     32,
			Background: Solid(t.accent),
			Children: []*Node{
				textNode(RoleBallotNumber, snap.BallotNumber, 44, 800, t.backgroundFrom),
			},
		})
	}

	right := &Node{
		Role:      "right-column",
		Width:     Fill(),
		Direction: Column,
		Justify:   JustifyCenter,
		Gap:       14,
	}
	if !isBlank(snap.Party) {
		right.Children = append(right.Children, textNode(RoleParty, snap.Party, 26, 700, t.accent))
	}
	name := snap.Name
	if isBlank(name) {
		name = CivicNamePlaceholder
	}
	right.Children = append(right.Children, textNode(RoleName, name, 64, 800, t.primaryText))
	if line := JoinNonBlank(Separator, snap.Office, snap.Region, snap.ElectionYear); line != "" {
		right.Children = append(right.Children, textNode(RoleCompositeLine, line, 30, 500, t.secondaryText))
	}
	if !isBlank(snap.Slogan) {
		slogan := textNode(RoleSlogan, Quote(snap.Slogan), 28, 400, t.secondaryText)
		slogan.Text.Italic = true
		right.Children = append(right.Children, slogan)
	}
	if meta := metaRow(snap, t); meta != nil {
		right.Children = append(right.Children, meta)
	}

	office := snap.Office
	if isBlank(office) {
		office = "Public Servant"
	}

	return &Node{
		Role:       RoleRoot,
		Width:      Px(CanvasWidth),
		Height:     Px(CanvasHeight),
		Direction:  Column,
		Background: t.background(),
		Children: []*Node{
			{
				Role:       RoleAccentBar,
				Absolute:   &Offset{Left: 0, Top: 0},
				Width:      Px(14),
				Height:     Px(CanvasHeight),
				Background: Solid(t.accent),
			},
			{
				Role:     RoleOrnament,
				Absolute: &Offset{Left: 880, Top: -140},
				Width:    Px(420),
				Height:   Px(420),
				Shape:    ShapeEllipse,
				Border:   Border{Width: 3, Color: rgba(255, 255, 255, 0.10)},
			},
			{
				Role:     RoleOrnament,
				Absolute: &Offset{Left: 990, Top: 400},
				Width:    Px(280),
				Height:   Px(280),
				Shape:    ShapeEllipse,
				Border:   Border{Width: 2, Color: rgba(245, 183, 1, 0.22)},
			},
			{
				Role:      RoleBody,
				Width:     Percent(100),
				Height:    Fill(),
				Direction: Row,
				Align:     AlignCenter,
				Gap:       64,
				Padding:   Edges{Top: 48, Right: 80, Bottom: 24, Left: 88},
				Children:  []*Node{left, right},
			},
			footer(b.brand(), "Civic Card"+Separator+office, t),
		},
	}
}

func (b Builder) standard(snap models.CardSnapshot, photo *inliner.Image) *Node {
	t := standardTheme

	name := snap.Name
	if isBlank(name) {
		name = StandardNamePlaceholder
	}
	stack := &Node{
		Role:      "text-stack",
		Width:     Fill(),
		Direction: Column,
		Gap:       14,
		Children:  []*Node{textNode(RoleName, name, 68, 800, t.primaryText)},
	}
	if !isBlank(snap.Title) {
		stack.Children = append(stack.Children, textNode(RoleTitle, snap.Title, 36, 500, t.secondaryText))
	}
	if !isBlank(snap.Company) {
		company := textNode(RoleCompany, snap.Company, 32, 400, t.mutedText)
		company.Text.Italic = true
		stack.Children = append(stack.Children, company)
	}
	if meta := metaRow(snap, t); meta != nil {
		stack.Children = append(stack.Children, meta)
	}

	return &Node{
		Role:       RoleRoot,
		Width:      Px(CanvasWidth),
		Height:     Px(CanvasHeight),
		Direction:  Column,
		Background: t.background(),
		Children: []*Node{
			{
				Role:      RoleBody,
				Width:     Percent(100),
				Height:    Fill(),
				Direction: Row,
				Align:     AlignCenter,
				Gap:       64,
				Padding:   Edges{Top: 48, Right: 80, Bottom: 24, Left: 80},
				Children:  []*Node{avatar(snap.Name, photo, 280, t), stack},
			},
			footer(b.brand(), "Digital Business Card", t),
		},
	}
}

// avatar is the circular photo, or the initials disc when photo is nil.
func avatar(name string, photo *inliner.Image, size float64, t theme) *Node {
	if photo != nil {
		return &Node{
			Role:   RolePhoto,
			Width:  Px(size),
			Height: Px(size),
			Shape:  ShapeEllipse,
			Border: Border{Width: 6, Color: t.accent},
			Image: &Image{
				ContentType: photo.ContentType,
				Data:        photo.Data,
				DataURI:     photo.DataURI,
				Decoded:     photo.Decoded,
			},
		}
	}
	return &Node{
		Role:       RoleInitials,
		Width:      Px(size),
		Height:     Px(size),
		Shape:      ShapeEllipse,
		Justify:    JustifyCenter,
		Align:      AlignCenter,
		Background: t.avatarFill(),
		Border:     Border{Width: 6, Color: rgba(255, 255, 255, 0.35)},
		Children: []*Node{
			textNode(RoleInitialsText, Initials(name), size*0.38, 800, t.primaryText),
		},
	}
}

// metaRow holds the location marker and the endorsement count. It is nil
// when neither is shown.
func metaRow(snap models.CardSnapshot, t theme) *Node {
	row := &Node{
		Role:      RoleMetaRow,
		Direction: Row,
		Align:     AlignCenter,
		Gap:       28,
	}
	if !isBlank(snap.Location) {
		row.Children = append(row.Children, &Node{
			Role:      RoleLocation,
			Direction: Row,
			Align:     AlignCenter,
			Gap:       10,
			Children: []*Node{
				{
					Role:       RoleLocationPin,
					Width:      Px(14),
					Height:     Px(14),
					Shape:      ShapeEllipse,
					Background: Solid(t.accent),
				},
				textNode("location-text", snap.Location, 26, 400, t.mutedText),
			},
		})
	}
	if snap.EngagementCount > 0 {
		row.Children = append(row.Children,
			textNode(RoleEngagement, EndorsementLabel(snap.EngagementCount), 26, 600, t.accent))
	}
	if len(row.Children) == 0 {
		return nil
	}
	return row
}

func footer(brand, tagline string, t theme) *Node {
	return &Node{
		Role:       RoleFooter,
		Width:      Percent(100),
		Height:     Px(84),
		Direction:  Row,
		Justify:    JustifySpaceBetween,
		Align:      AlignCenter,
		Padding:    Symmetric(0, 80),
		Background: Solid(t.footer),
		Children: []*Node{
			textNode(RoleWordmark, brand, 30, 800, t.primaryText),
			textNode(RoleTagline, tagline, 22, 500, t.mutedText),
		},
	}
}

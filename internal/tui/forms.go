package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gashapon-labs/cardstock/internal/gacha"
	"github.com/gashapon-labs/cardstock/internal/gacha/client"
)

// formField is one labelled textinput. Labels use the wire field
// names so what the operator sees matches what the service receives.
type formField struct {
	name  string
	input textinput.Model
}

func newField(name, value, placeholder string) formField {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = 128
	in.SetValue(value)
	return formField{name: name, input: in}
}

type form struct {
	fields []formField
	focus  int
	err    string
}

func newFormOf(fields ...formField) *form {
	f := &form{fields: fields}
	f.fields[0].input.Focus()
	return f
}

func (f *form) next() { f.setFocus((f.focus + 1) % len(f.fields)) }

func (f *form) prev() { f.setFocus((f.focus - 1 + len(f.fields)) % len(f.fields)) }

func (f *form) setFocus(i int) {
	f.fields[f.focus].input.Blur()
	f.focus = i
	f.fields[f.focus].input.Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

// value returns the trimmed content of the named field.
func (f *form) value(name string) string {
	for _, field := range f.fields {
		if field.name == name {
			return strings.TrimSpace(field.input.Value())
		}
	}
	return ""
}

func (f *form) view(title, hint string) string {
	var lines []string
	lines = append(lines, panelTitle.Render(title))
	for i, field := range f.fields {
		marker := "  "
		if i == f.focus {
			marker = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%-19s %s", marker, field.name, field.input.View()))
	}
	if f.err != "" {
		lines = append(lines, bannerStyle.Render("✗ "+f.err))
	}
	if hint != "" {
		lines = append(lines, footerStyle.Render(hint))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// editForm is the card edit modal. Submit sends only the fields that
// differ from the card as it was when the modal opened.
type editForm struct {
	*form
	cardID   string
	original gacha.Card
}

func newEditForm(card gacha.Card) *editForm {
	return &editForm{
		form: newFormOf(
			newField("card_name", card.CardName, ""),
			newField("rarity", card.Rarity, ""),
			newField("point_worth", strconv.Itoa(card.PointWorth), ""),
			newField("quantity", strconv.Itoa(card.Quantity), ""),
			newField("date_got_in_stock", card.DateGotInStock, "2006-01-02"),
		),
		cardID:   card.ID,
		original: card,
	}
}

func (f *editForm) changedPatch() (gacha.CardPatch, error) {
	var patch gacha.CardPatch
	if v := f.value("card_name"); v != f.original.CardName {
		patch.CardName = &v
	}
	if v := f.value("rarity"); v != f.original.Rarity {
		patch.Rarity = &v
	}
	if v := f.value("point_worth"); v != strconv.Itoa(f.original.PointWorth) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return gacha.CardPatch{}, fmt.Errorf("point_worth must be a whole number")
		}
		patch.PointWorth = &n
	}
	if v := f.value("quantity"); v != strconv.Itoa(f.original.Quantity) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return gacha.CardPatch{}, fmt.Errorf("quantity must be a whole number")
		}
		patch.Quantity = &n
	}
	if v := f.value("date_got_in_stock"); v != f.original.DateGotInStock {
		patch.DateGotInStock = &v
	}
	return patch, nil
}

// uploadForm collects a new card. The image is opened in the command
// that performs the upload, not here.
type uploadForm struct {
	*form
}

func newUploadForm() *uploadForm {
	return &uploadForm{form: newFormOf(
		newField("card_name", "", "Neon Dragon"),
		newField("rarity", "", "common, rare, epic or legendary"),
		newField("point_worth", "", "100"),
		newField("quantity", "", "1 when empty"),
		newField("date_got_in_stock", "", "today when empty"),
		newField("image", "", "path/to/image.png"),
	)}
}

func (f *uploadForm) buildRequest(collection string) (client.UploadCardRequest, string, error) {
	req := client.UploadCardRequest{CollectionID: collection}

	req.CardName = f.value("card_name")
	if req.CardName == "" {
		return req, "", fmt.Errorf("card_name is required")
	}
	req.Rarity = f.value("rarity")
	if req.Rarity == "" {
		return req, "", fmt.Errorf("rarity is required")
	}

	points := f.value("point_worth")
	if points == "" {
		return req, "", fmt.Errorf("point_worth is required")
	}
	n, err := strconv.Atoi(points)
	if err != nil {
		return req, "", fmt.Errorf("point_worth must be a whole number")
	}
	req.PointWorth = n

	req.Quantity = 1
	if v := f.value("quantity"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return req, "", fmt.Errorf("quantity must be a whole number")
		}
		req.Quantity = q
	}

	req.DateGotInStock = f.value("date_got_in_stock")
	if req.DateGotInStock == "" {
		req.DateGotInStock = time.Now().Format(time.DateOnly)
	}

	imagePath := f.value("image")
	if imagePath == "" {
		return req, "", fmt.Errorf("image path is required")
	}
	return req, imagePath, nil
}

// collectionForm registers a new collection.
type collectionForm struct {
	*form
}

func newCollectionForm() *collectionForm {
	return &collectionForm{form: newFormOf(
		newField("name", "", "summer-festival"),
		newField("firestoreCollection", "", "defaults to the name"),
		newField("storagePrefix", "", "defaults to the name"),
	)}
}

func (f *collectionForm) buildCollection() (gacha.Collection, error) {
	col := gacha.Collection{
		Name:                f.value("name"),
		FirestoreCollection: f.value("firestoreCollection"),
		StoragePrefix:       f.value("storagePrefix"),
	}
	if col.Name == "" {
		return col, fmt.Errorf("name is required")
	}
	if col.FirestoreCollection == "" {
		col.FirestoreCollection = col.Name
	}
	if col.StoragePrefix == "" {
		col.StoragePrefix = col.Name
	}
	return col, nil
}

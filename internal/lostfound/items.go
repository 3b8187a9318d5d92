package lostfound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lostfound/registry/internal/auth"
	"github.com/lostfound/registry/internal/imaging"
	"github.com/lostfound/registry/internal/media"
	"github.com/lostfound/registry/internal/model"
	"github.com/lostfound/registry/internal/store"
)

// Page is one page of the item listing.
type Page struct {
	Number      int
	Count       int
	HasNext     bool
	HasPrevious bool
	Items       []model.Item
}

// ItemInput carries the client-writable fields of a new item. A nil Image
// means no photo was uploaded.
type ItemInput struct {
	Name        string
	Category    string
	Description string
	DateFound   string
	Image       io.Reader
}

// ListItems returns the given 1-based page of items, newest first.
func (s *Service) ListItems(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		return nil, newError(KindNotFound, MsgInvalidPage)
	}

	count, err := s.items.Count(ctx)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * s.pageSize
	// The first page exists even when there are no items.
	if page > 1 && offset >= count {
		return nil, newError(KindNotFound, MsgInvalidPage)
	}

	items, err := s.items.List(ctx, s.pageSize, offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}

	return &Page{
		Number:      page,
		Count:       count,
		HasNext:     offset+len(items) < count,
		HasPrevious: page > 1,
		Items:       items,
	}, nil
}

// GetItem returns a single item.
func (s *Service) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, newError(KindNotFound, MsgNotFound)
	}
	return item, nil
}

// CreateItem reports a found item on behalf of caller. The photo is
// mandatory for new items.
func (s *Service) CreateItem(ctx context.Context, caller auth.Identity, in ItemInput) (*model.Item, error) {
	if !caller.Authenticated() {
		return nil, newError(KindAuthentication, MsgNotAuthenticated)
	}
	if !caller.Can(auth.CapCreateItem) {
		return nil, newError(KindAuthorization, "You do not have permission to perform this action.")
	}

	item, err := s.validateItem(in)
	if err != nil {
		return nil, err
	}

	processed, err := s.processImage(in.Image)
	if errors.Is(err, imaging.ErrInvalidImage) {
		fe := fieldErrors{}
		fe.add("image", MsgInvalidImage)
		return nil, fe.err()
	}
	if err != nil {
		return nil, fmt.Errorf("processing image: %w", err)
	}

	item.UUID = s.newUUID()
	item.UserID = caller.UserID
	item.UserName = caller.Username
	item.CreatedAt = s.now().UTC().Truncate(time.Microsecond)
	item.Claimed = false
	item.Image = media.ItemImageKey(item.UUID.String())

	if err := s.blobs.Put(ctx, item.Image, processed.Data); err != nil {
		return nil, fmt.Errorf("storing image: %w", err)
	}

	if err := s.items.Create(ctx, item); err != nil {
		if derr := s.blobs.Delete(ctx, item.Image); derr != nil {
			s.logger.Error("failed to remove orphaned image", "key", item.Image, "error", derr)
		}
		return nil, err
	}

	s.logger.Info("item reported", "user", caller.Username, "item", item.ID,
		"uuid", item.UUID.String(), "category", item.Category,
		"width", processed.Width, "height", processed.Height)
	return item, nil
}

// validateItem checks every client field and collects all problems.
func (s *Service) validateItem(in ItemInput) (*model.Item, error) {
	fe := fieldErrors{}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		fe.add("name", MsgFieldRequired)
	case utf8.RuneCountInString(name) > model.MaxItemNameLength:
		fe.add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", model.MaxItemNameLength))
	}

	category := strings.TrimSpace(in.Category)
	switch {
	case category == "":
		fe.add("category", MsgFieldRequired)
	case !model.ValidCategory(category):
		fe.add("category", fmt.Sprintf("%q is not a valid choice.", category))
	}

	date := strings.TrimSpace(in.DateFound)
	switch {
	case date == "":
		fe.add("date_found", MsgFieldRequired)
	case !model.ValidDate(date):
		fe.add("date_found", MsgInvalidDate)
	}

	if in.Image == nil {
		fe.add("image", MsgImageRequired)
	}

	if err := fe.err(); err != nil {
		return nil, err
	}

	return &model.Item{
		Name:        name,
		Category:    category,
		Description: strings.TrimSpace(in.Description),
		DateFound:   date,
	}, nil
}

// SetClaimed changes an item's claimed status. Only callers holding
// auth.CapSetClaimed may do so; value must be one of the literals accepted
// by model.ParseClaimed. No other field is touched.
func (s *Service) SetClaimed(ctx context.Context, caller auth.Identity, id int64, value any) (*model.Item, error) {
	if !caller.Authenticated() {
		return nil, newError(KindAuthentication, MsgNotAuthenticated)
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.Can(auth.CapSetClaimed) {
		s.logger.Warn("claimed update refused", "user", caller.Username, "item", id)
		return nil, newError(KindAuthorization, MsgAdminRequired)
	}

	claimed, ok := model.ParseClaimed(value)
	if !ok {
		fe := fieldErrors{}
		fe.add("claimed", MsgInvalidValue)
		return nil, fe.err()
	}

	if err := s.items.SetClaimed(ctx, id, claimed); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindNotFound, MsgNotFound)
		}
		return nil, err
	}
	item.Claimed = claimed

	s.logger.Info("item claimed status updated", "user", caller.Username, "item", id, "claimed", claimed)
	return item, nil
}

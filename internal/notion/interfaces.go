package notion

import (
	"context"

	"github.com/jomei/notionapi"
)

//go:generate mockgen -source=interfaces.go -destination=mock_notion/mock_notion.go -package=mock_notion
type (
	// NotionClient exposes the notionapi services the mirror uses
	NotionClient interface {
		Page() PageService
		Block() BlockService
	}

	PageService interface {
		Create(context.Context, *notionapi.PageCreateRequest) (*notionapi.Page, error)
	}

	BlockService interface {
		AppendChildren(context.Context, notionapi.BlockID, *notionapi.AppendBlockChildrenRequest) (*notionapi.AppendBlockChildrenResponse, error)
	}
)

package notion

import "github.com/jomei/notionapi"

// NewWithClient builds a Client around nc without retry pauses
func NewWithClient(nc NotionClient, parentPageID string) *Client {
	return &Client{client: nc, parentID: notionapi.PageID(parentPageID)}
}

var ConvertMarkdownToBlocks = convertMarkdownToBlocks

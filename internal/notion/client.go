// Package notion mirrors exported notes into a Notion workspace as child
// pages of a configured parent page.
package notion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/takak2166/leanote2md/internal/logger"
)

const (
	// Notion accepts at most 100 children per request
	maxBlocksPerRequest = 100
	// and at most 2000 characters per rich text object
	maxRichTextLength = 2000

	createAttempts = 3
)

type notionClientAdapter struct {
	client *notionapi.Client
}

func (a *notionClientAdapter) Page() PageService   { return a.client.Page }
func (a *notionClientAdapter) Block() BlockService { return a.client.Block }

// Client creates Notion pages from exported notes
type Client struct {
	client     NotionClient
	parentID   notionapi.PageID
	retryDelay time.Duration
}

// New creates a Notion client that files pages under parentPageID
func New(apiKey, parentPageID string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("notion api key is not set")
	}
	if parentPageID == "" {
		return nil, errors.New("notion parent page id is not set")
	}

	return &Client{
		client:     &notionClientAdapter{client: notionapi.NewClient(notionapi.Token(apiKey))},
		parentID:   notionapi.PageID(parentPageID),
		retryDelay: time.Second,
	}, nil
}

// CreatePage creates a child page holding the markdown content
func (c *Client) CreatePage(ctx context.Context, title string, content string, tags []string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("page title is empty")
	}
	logger.Debug("Creating Notion page", map[string]interface{}{
		"title": title,
		"tags":  tags,
	})

	blocks := convertMarkdownToBlocks(content)
	if len(tags) > 0 {
		blocks = append([]notionapi.Block{createParagraphBlock("Tags: #" + strings.Join(tags, " #"))}, blocks...)
	}
	first, rest := splitBlocks(blocks)

	pageParams := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:   "page_id",
			PageID: c.parentID,
		},
		Properties: notionapi.Properties{
			"title": notionapi.TitleProperty{
				Title: richText(title),
			},
		},
		Children: first,
	}

	var page *notionapi.Page
	var err error
	for i := 0; i < createAttempts; i++ {
		page, err = c.client.Page().Create(ctx, pageParams)
		if err == nil {
			break
		}
		if i < createAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}
	if err != nil {
		return fmt.Errorf("failed to create page after %d attempts: %w", createAttempts, err)
	}

	for len(rest) > 0 {
		var batch []notionapi.Block
		batch, rest = splitBlocks(rest)
		_, err := c.client.Block().AppendChildren(ctx, notionapi.BlockID(page.ID), &notionapi.AppendBlockChildrenRequest{
			Children: batch,
		})
		if err != nil {
			return fmt.Errorf("failed to append blocks to page %s: %w", page.ID, err)
		}
	}

	logger.Info("Mirrored note to Notion", map[string]interface{}{
		"title":  title,
		"blocks": len(blocks),
	})
	return nil
}

func splitBlocks(blocks []notionapi.Block) ([]notionapi.Block, []notionapi.Block) {
	if len(blocks) <= maxBlocksPerRequest {
		return blocks, nil
	}
	return blocks[:maxBlocksPerRequest], blocks[maxBlocksPerRequest:]
}

// convertMarkdownToBlocks converts markdown content to Notion blocks
func convertMarkdownToBlocks(content string) []notionapi.Block {
	var blocks []notionapi.Block
	lines := strings.Split(content, "\n")

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "```"):
			var code []string
			i++
			for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
				code = append(code, lines[i])
				i++
			}
			blocks = append(blocks, createCodeBlock(strings.Join(code, "\n")))
		case strings.HasPrefix(line, "### "):
			blocks = append(blocks, createHeadingBlock(line[4:], 3))
		case strings.HasPrefix(line, "## "):
			blocks = append(blocks, createHeadingBlock(line[3:], 2))
		case strings.HasPrefix(line, "# "):
			blocks = append(blocks, createHeadingBlock(line[2:], 1))
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			blocks = append(blocks, createBulletedListBlock(line[2:]))
		default:
			blocks = append(blocks, createParagraphBlock(line))
		}
	}

	return blocks
}

// richText splits text into rich text objects within Notion's length limit
func richText(text string) []notionapi.RichText {
	runes := []rune(text)
	var out []notionapi.RichText
	for len(runes) > maxRichTextLength {
		out = append(out, notionapi.RichText{Text: &notionapi.Text{Content: string(runes[:maxRichTextLength])}})
		runes = runes[maxRichTextLength:]
	}
	return append(out, notionapi.RichText{Text: &notionapi.Text{Content: string(runes)}})
}

func createHeadingBlock(text string, level int) notionapi.Block {
	heading := notionapi.Heading{RichText: richText(text)}

	switch level {
	case 1:
		return &notionapi.Heading1Block{
			BasicBlock: notionapi.BasicBlock{Object: "block", Type: notionapi.BlockTypeHeading1},
			Heading1:   heading,
		}
	case 2:
		return &notionapi.Heading2Block{
			BasicBlock: notionapi.BasicBlock{Object: "block", Type: notionapi.BlockTypeHeading2},
			Heading2:   heading,
		}
	default:
		return &notionapi.Heading3Block{
			BasicBlock: notionapi.BasicBlock{Object: "block", Type: notionapi.BlockTypeHeading3},
			Heading3:   heading,
		}
	}
}

func createCodeBlock(content string) notionapi.Block {
	return &notionapi.CodeBlock{
		BasicBlock: notionapi.BasicBlock{Object: "block", Type: notionapi.BlockTypeCode},
		Code: notionapi.Code{
			RichText: richText(content),
			Language: "plain text",
		},
	}
}

func createBulletedListBlock(text string) notionapi.Block {
	return &notionapi.BulletedListItemBlock{
		BasicBlock:       notionapi.BasicBlock{Object: "block", Type: notionapi.BlockTypeBulletedListItem},
		BulletedListItem: notionapi.ListItem{RichText: richText(text)},
	}
}

func createParagraphBlock(text string) notionapi.Block {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{Object: "block", Type: notionapi.BlockTypeParagraph},
		Paragraph:  notionapi.Paragraph{RichText: richText(text)},
	}
}

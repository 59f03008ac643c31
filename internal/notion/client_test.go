package notion_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takak2166/leanote2md/internal/notion"
	"github.com/takak2166/leanote2md/internal/notion/mock_notion"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		apiKey      string
		parentID    string
		expectError bool
	}{
		{name: "Valid configuration", apiKey: "test_key", parentID: "test_page_id"},
		{name: "Missing API key", parentID: "test_page_id", expectError: true},
		{name: "Missing parent page ID", apiKey: "test_key", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := notion.New(tt.apiKey, tt.parentID)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestCreatePage(t *testing.T) {
	ctx := context.Background()

	var long strings.Builder
	for i := 0; i < 150; i++ {
		fmt.Fprintf(&long, "paragraph %d\n\n", i)
	}

	tests := map[string]struct {
		title      string
		content    string
		tags       []string
		setupMocks func(page *mock_notion.MockPageService, block *mock_notion.MockBlockService)
		expectErr  bool
	}{
		"Success - With Tags": {
			title:   "Test Page",
			content: "# Test Page\n\nThis is a test page.",
			tags:    []string{"go", "notes"},
			setupMocks: func(page *mock_notion.MockPageService, block *mock_notion.MockBlockService) {
				page.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
					func(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
						assert.Equal(t, notionapi.PageID("parent"), req.Parent.PageID)
						title := req.Properties["title"].(notionapi.TitleProperty)
						assert.Equal(t, "Test Page", title.Title[0].Text.Content)
						if assert.Len(t, req.Children, 3) {
							tags := req.Children[0].(*notionapi.ParagraphBlock)
							assert.Equal(t, "Tags: #go #notes", tags.Paragraph.RichText[0].Text.Content)
						}
						return &notionapi.Page{ID: "p1"}, nil
					})
			},
		},
		"Success - Long note is appended in batches": {
			title:   "Long",
			content: long.String(),
			setupMocks: func(page *mock_notion.MockPageService, block *mock_notion.MockBlockService) {
				page.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
					func(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
						assert.Len(t, req.Children, 100)
						return &notionapi.Page{ID: "p2"}, nil
					})
				block.EXPECT().AppendChildren(ctx, notionapi.BlockID("p2"), gomock.Any()).DoAndReturn(
					func(_ context.Context, _ notionapi.BlockID, req *notionapi.AppendBlockChildrenRequest) (*notionapi.AppendBlockChildrenResponse, error) {
						assert.Len(t, req.Children, 50)
						return &notionapi.AppendBlockChildrenResponse{}, nil
					})
			},
		},
		"Success - Retried after transient failure": {
			title:   "Flaky",
			content: "body",
			setupMocks: func(page *mock_notion.MockPageService, block *mock_notion.MockBlockService) {
				gomock.InOrder(
					page.EXPECT().Create(ctx, gomock.Any()).Return(nil, errors.New("502")),
					page.EXPECT().Create(ctx, gomock.Any()).Return(&notionapi.Page{ID: "p3"}, nil),
				)
			},
		},
		"Failure - Creation keeps failing": {
			title:   "Broken",
			content: "body",
			setupMocks: func(page *mock_notion.MockPageService, block *mock_notion.MockBlockService) {
				page.EXPECT().Create(ctx, gomock.Any()).Return(nil, errors.New("rate limited")).Times(3)
			},
			expectErr: true,
		},
		"Failure - Append fails": {
			title:   "Long",
			content: long.String(),
			setupMocks: func(page *mock_notion.MockPageService, block *mock_notion.MockBlockService) {
				page.EXPECT().Create(ctx, gomock.Any()).Return(&notionapi.Page{ID: "p4"}, nil)
				block.EXPECT().AppendChildren(ctx, notionapi.BlockID("p4"), gomock.Any()).Return(nil, errors.New("422"))
			},
			expectErr: true,
		},
		"Failure - Empty Title": {
			title:      "  ",
			content:    "This page has no title.",
			setupMocks: func(page *mock_notion.MockPageService, block *mock_notion.MockBlockService) {},
			expectErr:  true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			mockClient := mock_notion.NewMockNotionClient(ctrl)
			mockPage := mock_notion.NewMockPageService(ctrl)
			mockBlock := mock_notion.NewMockBlockService(ctrl)
			mockClient.EXPECT().Page().Return(mockPage).AnyTimes()
			mockClient.EXPECT().Block().Return(mockBlock).AnyTimes()
			tt.setupMocks(mockPage, mockBlock)

			client := notion.NewWithClient(mockClient, "parent")
			err := client.CreatePage(ctx, tt.title, tt.content, tt.tags)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConvertMarkdownToBlocks(t *testing.T) {
	content := strings.Join([]string{
		"# Title",
		"## Section",
		"### Sub",
		"- item",
		"* other",
		"```go",
		"fmt.Println(1)",
		"```",
		"plain " + strings.Repeat("x", 2500),
	}, "\n")

	blocks := notion.ConvertMarkdownToBlocks(content)
	require.Len(t, blocks, 7)

	assert.IsType(t, &notionapi.Heading1Block{}, blocks[0])
	assert.IsType(t, &notionapi.Heading2Block{}, blocks[1])
	assert.IsType(t, &notionapi.Heading3Block{}, blocks[2])
	assert.IsType(t, &notionapi.BulletedListItemBlock{}, blocks[3])
	assert.IsType(t, &notionapi.BulletedListItemBlock{}, blocks[4])

	code := blocks[5].(*notionapi.CodeBlock)
	assert.Equal(t, "fmt.Println(1)", code.Code.RichText[0].Text.Content)

	para := blocks[6].(*notionapi.ParagraphBlock)
	require.Len(t, para.Paragraph.RichText, 2)
	assert.Len(t, para.Paragraph.RichText[0].Text.Content, 2000)
}

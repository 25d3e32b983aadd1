package cli

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glyphlabs/glyph/internal/ledger"
	"github.com/glyphlabs/glyph/internal/output"
	"github.com/glyphlabs/glyph/internal/publish"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	publishMediaPath string
	publishThumbPath string
	publishTitle     string
	publishDesc      string
	publishTags      []string
	publishProvider  string
)

// publishCmd runs the full publication flow.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish media to the ledger",
	Long: `Publish a media file, its thumbnail, and a metadata record to the ledger.

Uploads run sequentially: media, thumbnail, then a metadata record referencing
both. The metadata upload commits the publication; if an earlier step fails,
nothing usable is persisted and the command reports the failing step. Uploaded
assets from a failed run remain on the ledger as unreferenced records.

Publishing requires a wallet session; the command connects to the named
provider before uploading and prompts for approval.`,
	Example: `  glyph publish --media art.png --thumbnail thumb.png --title "First Drop" --tag collection=genesis`,
	RunE:    runPublish,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVar(&publishMediaPath, "media", "", "path to the media file (required)")
	publishCmd.Flags().StringVar(&publishThumbPath, "thumbnail", "", "path to the thumbnail file (required)")
	publishCmd.Flags().StringVar(&publishTitle, "title", "", "publication title (required)")
	publishCmd.Flags().StringVar(&publishDesc, "description", "", "publication description")
	publishCmd.Flags().StringArrayVar(&publishTags, "tag", nil, "extra ledger tag as name=value (repeatable, order preserved)")
	publishCmd.Flags().StringVar(&publishProvider, "provider", "", "signing provider to connect (default: last used)")

	_ = publishCmd.MarkFlagRequired("media")
	_ = publishCmd.MarkFlagRequired("thumbnail")
	_ = publishCmd.MarkFlagRequired("title")
}

func runPublish(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	media, mediaType, err := readAsset(publishMediaPath)
	if err != nil {
		return err
	}
	thumb, thumbType, err := readAsset(publishThumbPath)
	if err != nil {
		return err
	}
	tags, err := parseTags(publishTags)
	if err != nil {
		return err
	}

	// Connecting is a distinct step from publishing: the publisher itself
	// refuses to run against anything but an already-connected session.
	if err := connectForPublish(cmd, cc); err != nil {
		return err
	}

	desc, err := cc.Publisher.Publish(cmd.Context(), publish.Request{
		Media:         media,
		MediaType:     mediaType,
		Thumbnail:     thumb,
		ThumbnailType: thumbType,
		Metadata: publish.Metadata{
			Title:       publishTitle,
			Description: publishDesc,
		},
		Tags: tags,
	}, cc.Session)
	if err != nil {
		return err
	}

	return cc.Formatter.Print(output.PublicationView{
		MediaTxID:     desc.MediaTxID,
		ThumbnailTxID: desc.ThumbnailTxID,
		MetadataTxID:  desc.MetadataTxID,
	})
}

func connectForPublish(cmd *cobra.Command, cc *CommandContext) error {
	var args []string
	if publishProvider != "" {
		args = []string{publishProvider}
	}
	name, err := resolveProviderName(cc, args)
	if err != nil {
		return err
	}
	if err := cc.Session.Select(name); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cc.Config.Ledger.Timeout())
	defer cancel()

	if _, err := cc.Session.Connect(ctx); err != nil {
		return err
	}
	return nil
}

// readAsset loads a file and sniffs its content type, preferring the
// extension over content sniffing.
func readAsset(path string) ([]byte, string, error) {
	// #nosec G304 -- asset path comes from the invoking user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", glypherr.Wrap(glypherr.ErrInvalidInput, "reading %s: %v", path, err)
	}
	if len(data) == 0 {
		return nil, "", glypherr.Wrap(glypherr.ErrInvalidInput, "%s is empty", path)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// parseTags converts name=value flags into ordered ledger tags.
func parseTags(raw []string) ([]ledger.Tag, error) {
	tags := make([]ledger.Tag, 0, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		if !ok || name == "" {
			return nil, glypherr.WithSuggestion(
				glypherr.Wrap(glypherr.ErrInvalidInput, "malformed tag %q", r),
				"tags take the form --tag name=value",
			)
		}
		tags = append(tags, ledger.Tag{Name: name, Value: value})
	}
	return tags, nil
}

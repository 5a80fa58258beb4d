package cmd

import (
	"fmt"
	"io"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/common/errors"
)

// printTroubleshooting prints guidance for failures the user can fix in
// their environment. Other errors print nothing.
func printTroubleshooting(w io.Writer, err error) {
	switch errors.CodeOf(err) {
	case errors.CodeConfigurationInvalid:
		fmt.Fprintln(w, "\n🔧 Configuration problem:")
		fmt.Fprintln(w, "   • YANDEX_GPT_API_KEY must be set (environment or .env file)")
		fmt.Fprintln(w, "   • CODEFIXER_ROOT_DIR must point to an existing directory")
		fmt.Fprintln(w, "   • Durations use Go syntax, for example 30s or 5m")
	case errors.CodeNetworkError, errors.CodeNetworkTimeout:
		fmt.Fprintln(w, "\n🔧 Could not reach the completion provider:")
		fmt.Fprintln(w, "   • Check CODEFIXER_LLM_BASE_URL and your network or proxy settings")
		fmt.Fprintln(w, "   • Raise CODEFIXER_CONNECT_TIMEOUT or CODEFIXER_REQUEST_TIMEOUT on slow links")
	case errors.CodeProviderError:
		fmt.Fprintln(w, "\n🔧 The completion provider rejected the request:")
		fmt.Fprintln(w, "   • The API key may be invalid or have no access to the model")
		fmt.Fprintln(w, "   • CODEFIXER_MODEL_URI must name a model in a folder the key can use")
		fmt.Fprintln(w, "   • Set CODEFIXER_FOLDER_ID when the key belongs to a different folder")
	default:
		return
	}
	fmt.Fprintln(w)
}

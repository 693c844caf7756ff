package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// 进程退出码。
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2 // 批处理完成，但至少一个文档失败
)

// errPartial 表示批处理完成但存在失败的文档。
var errPartial = errors.New("some documents could not be analysed")

var rootCmd = &cobra.Command{
	Use:   "rca-insights",
	Short: "Extract root reasons and actionables from RCA documents",
	Long: `rca-insights reads a directory of incident post-mortems (RCAs), asks an LLM to
extract root reasons and actionables from each one, and writes them as
root_reasons.csv and actionables.csv.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute 执行根命令并返回进程退出码。
func Execute() int {
	err := rootCmd.Execute()
	code := exitCode(err)
	if code == exitFatal {
		fmt.Fprintf(os.Stderr, "rca-insights: %s\n", err)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errPartial):
		return exitPartial
	default:
		return exitFatal
	}
}

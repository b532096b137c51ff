package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/core"
	"github.com/RecoveryAshes/StreamLinkcrack/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 提取参数
	targetURL      string
	urlFile        string
	requesterID    string
	maxDepth       int
	fetchTimeout   int
	overallTimeout int
	iframeFetches  int
	noValidate     bool
	maxLinks       int
	jsonOutput     bool
	outputFile     string

	// 批量处理参数
	batchDelay      int
	continueOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "streamlinkcrack",
	Short: "影视站直链视频提取工具",
	Long: `StreamLinkcrack - 影视站剧集页直链视频提取工具 (Go版本)

输入支持站点的剧集页链接,自动解析页面和播放器iframe,
输出按清晰度排序的可直接播放的视频地址:
  • 多策略提取: HTML标记、内联脚本、播放器配置、内嵌JSON、meta标签
  • iframe递归解析,自动跳过广告/统计组件
  • 清晰度识别 (4K/1080p/720p/480p/360p/240p) 和格式识别 (MP4/M3U8/...)
  • 链接可达性探测 (HEAD/Range,不下载视频内容)
  • 批量URL处理
  • 自定义HTTP请求头

使用示例:
  # 提取单个剧集页
  streamlinkcrack -u https://phimmoi.net/phim/ten-phim/tap-1

  # 批量提取并输出JSON
  streamlinkcrack -f urls.txt --json

  # 自定义请求头
  streamlinkcrack -u https://phimmoi.net/phim/x/tap-2 -H "Referer: https://phimmoi.net/"

  # 验证配置文件
  streamlinkcrack --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 设置信号处理(Ctrl+C优雅退出)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("收到中断信号: %v, 正在优雅关闭...", sig)
			cancel()
		}()

		// 加载配置
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 创建HTTP头部管理器
		headerManager, err := core.NewHeaderManager("", headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		// 如果用户请求验证配置
		if validateConfig {
			utils.Info("🔍 验证HTTP头部配置...")
			if err := headerManager.LoadConfig(); err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}

			// 显示合并后的头部(脱敏)
			safeHeaders := headerManager.GetSafeHeaders()
			utils.Info("✅ 配置验证通过!")
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
			return nil
		}

		// 如果没有提供任何参数,显示帮助信息
		if targetURL == "" && urlFile == "" {
			return cmd.Help()
		}

		// 验证参数
		if err := ValidateFlags(targetURL, maxDepth, fetchTimeout, overallTimeout, iframeFetches, maxLinks); err != nil {
			return err
		}

		// 命令行参数覆盖配置文件
		appConfig.MergeCLIFlags(maxDepth, fetchTimeout, overallTimeout, iframeFetches, !noValidate, maxLinks)

		// 创建提取器
		extractor, err := core.NewExtractor(appConfig.GetExtractConfig(), headerManager)
		if err != nil {
			return fmt.Errorf("创建提取器失败: %w", err)
		}

		// 批量处理模式
		if urlFile != "" {
			if err := ValidateURLFile(urlFile); err != nil {
				return err
			}
			urls, err := utils.ReadURLsFromFile(urlFile)
			if err != nil {
				return fmt.Errorf("读取URL文件失败: %w", err)
			}

			batchConfig := appConfig.Batch
			if batchDelay >= 0 {
				batchConfig.InterURLDelay = batchDelay
			}
			batchConfig.ContinueOnError = continueOnError

			batchExtractor := core.NewBatchExtractor(extractor, requesterID, batchConfig, !jsonOutput)
			summary, err := batchExtractor.ExtractBatch(ctx, urls)
			if err != nil {
				return fmt.Errorf("批量提取失败: %w", err)
			}

			if jsonOutput {
				if err := printJSON(summary); err != nil {
					return err
				}
			}
			if outputFile != "" {
				if err := utils.SaveJSONReport(outputFile, summary); err != nil {
					return err
				}
				utils.Infof("📦 报告已保存: %s", outputFile)
			}

			utils.Info("✨ 批量提取任务完成!")
			return nil
		}

		// 单URL提取模式
		result, err := extractor.ExtractLinks(ctx, targetURL, requesterID)
		if err != nil {
			return fmt.Errorf("提取失败: %w", err)
		}

		if outputFile != "" {
			if err := utils.SaveJSONReport(outputFile, result); err != nil {
				return err
			}
			utils.Infof("📦 报告已保存: %s", outputFile)
		}

		if jsonOutput {
			return printJSON(result)
		}

		printResult(result)
		utils.Info("✨ 提取任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("StreamLinkcrack %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 影视站直链视频提取工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 提取参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "剧集页URL (必需,除非使用 --url-file)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文件路径")
	rootCmd.Flags().StringVar(&requesterID, "requester", "cli", "调用方标识(限流用)")
	rootCmd.Flags().IntVarP(&maxDepth, "depth", "d", 2, "iframe递归深度 (0-5)")
	rootCmd.Flags().IntVarP(&fetchTimeout, "timeout", "t", 30, "单页抓取超时(秒)")
	rootCmd.Flags().IntVar(&overallTimeout, "budget", 60, "整体时间预算(秒)")
	rootCmd.Flags().IntVar(&iframeFetches, "iframe-fetches", 5, "iframe并发抓取数 (1-20)")
	rootCmd.Flags().BoolVar(&noValidate, "no-validate", false, "跳过链接可达性探测")
	rootCmd.Flags().IntVar(&maxLinks, "max-links", 10, "最多返回的链接数")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "以JSON格式输出结果")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "将结果保存为JSON报告文件")

	// 批量处理参数
	rootCmd.Flags().IntVar(&batchDelay, "batch-delay", -1, "批量处理URL间延迟(秒),-1使用配置值")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

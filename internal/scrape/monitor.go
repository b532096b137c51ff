package scrape

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/RecoveryAshes/StreamLinkcrack/internal/utils"
)

// fetchMemoryUsage 单个iframe抓取任务的内存预估 (解压后的页面+解析开销)
const fetchMemoryUsage = 32 * 1024 * 1024

// ResourceMonitor 系统资源监控器
// 职责: 在iframe并发抓取前根据可用内存和CPU负载收缩并发度
type ResourceMonitor struct {
	totalMemory      uint64
	safetyReserve    int64 // 安全保留内存(字节)
	cpuLoadThreshold int   // CPU负载阈值(%)
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor(safetyReserveMB int, cpuLoadThreshold int) *ResourceMonitor {
	vmStat, err := mem.VirtualMemory()
	var totalMem uint64
	if err != nil {
		utils.Warnf("获取系统内存失败,使用默认值4GB: %v", err)
		totalMem = 4 * 1024 * 1024 * 1024
	} else {
		totalMem = vmStat.Total
	}

	return &ResourceMonitor{
		totalMemory:      totalMem,
		safetyReserve:    int64(safetyReserveMB) * 1024 * 1024,
		cpuLoadThreshold: cpuLoadThreshold,
	}
}

// CalculateMaxFetches 计算当前允许的iframe并发抓取数
// 取配置上限、内存上限、CPU核数三者的最小值,至少为1
func (rm *ResourceMonitor) CalculateMaxFetches(configured int) int {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	availableMemory := int64(rm.totalMemory) - int64(memStats.Alloc) - rm.safetyReserve

	maxByMemory := 1
	if availableMemory > 0 {
		maxByMemory = int(availableMemory / fetchMemoryUsage)
		if maxByMemory < 1 {
			maxByMemory = 1
		}
	}

	result := configured
	if maxByMemory < result {
		result = maxByMemory
	}
	if cpus := runtime.NumCPU(); cpus < result {
		result = cpus
	}

	// CPU负载超过阈值时退化为串行抓取
	// 阈值>=200视为禁用检查
	if rm.cpuLoadThreshold < 200 {
		if usage := rm.cpuUsage(); usage > float64(rm.cpuLoadThreshold) {
			utils.Warnf("CPU负载过高(当前%.1f%%),iframe抓取降级为串行", usage)
			result = 1
		}
	}

	if result < 1 {
		result = 1
	}
	return result
}

// cpuUsage 获取系统CPU使用率(百分比)
func (rm *ResourceMonitor) cpuUsage() float64 {
	// 100毫秒采样间隔,避免阻塞过久
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(percentages) == 0 {
		return 0.0
	}
	return percentages[0]
}

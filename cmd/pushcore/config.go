package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("push:\n")
			fmt.Printf("  executor_pool_size: %d\n", cfg.Push.ExecutorPoolSize)
			fmt.Printf("  executor_queue_size: %d\n", cfg.Push.ExecutorQueueSize)
			fmt.Printf("  debouncing_millis: %d\n", cfg.Push.DebouncingMillis)
			fmt.Printf("  retry_times: %d\n", cfg.Push.RetryTimes)
			fmt.Printf("  retry_first_delay_millis: %d\n", cfg.Push.RetryFirstDelayMillis)
			fmt.Printf("  retry_increment_delay_millis: %d\n", cfg.Push.RetryIncrementDelayMillis)
			fmt.Printf("  client_node_exchange_timeout_millis: %d\n", cfg.Push.ClientNodeExchangeTimeOutMillis)
			fmt.Printf("  stop_push_switch: %t\n", cfg.IsStopPushSwitch())
			fmt.Printf("admin:\n")
			fmt.Printf("  enabled: %t\n", cfg.Admin.Enabled)
			fmt.Printf("  addr: %s\n", cfg.Admin.Addr)
			fmt.Printf("logging:\n")
			fmt.Printf("  level: %s\n", cfg.Logging.Level)
			return nil
		},
	}
}

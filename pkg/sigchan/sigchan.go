// Package sigchan 提供只表达「发生过」的信号 channel。
// 决策引擎用它做急停开关：发送侧永不阻塞，重复触发合并为一次。
package sigchan

// Chan 非阻塞信号 channel，不携带数据。
type Chan struct {
	c chan struct{}
}

// New 创建信号 channel，bufferSize 决定可积压的未消费信号数。
func New(bufferSize int) *Chan {
	return &Chan{
		c: make(chan struct{}, bufferSize),
	}
}

// Emit 发出信号。缓冲已满说明信号尚未被消费，直接丢弃本次。
func (c *Chan) Emit() {
	select {
	case c.c <- struct{}{}:
	default:
	}
}

// C 暴露底层 channel 供 select 使用。
func (c *Chan) C() <-chan struct{} {
	return c.c
}

package sandbox

import (
	"bytes"

	"github.com/wooyang2018/govchain/contract/base"
)

// XIterator iterates raw keys of one sandbox layer.
type XIterator interface {
	Key() []byte
	Value() *Entry
	Next() bool
	Error() error
	Close()
}

type rawKV struct {
	key   []byte
	entry *Entry
}

// outputsIterator 遍历写集快照
type outputsIterator struct {
	kvs []rawKV
	idx int
}

func newOutputsIterator(kvs []rawKV) XIterator {
	return &outputsIterator{kvs: kvs, idx: -1}
}

func (o *outputsIterator) Next() bool {
	if o.idx+1 >= len(o.kvs) {
		o.idx = len(o.kvs)
		return false
	}
	o.idx++
	return true
}

func (o *outputsIterator) Key() []byte {
	if o.idx < 0 || o.idx >= len(o.kvs) {
		return nil
	}
	return o.kvs[o.idx].key
}

func (o *outputsIterator) Value() *Entry {
	if o.idx < 0 || o.idx >= len(o.kvs) {
		return nil
	}
	return o.kvs[o.idx].entry
}

func (o *outputsIterator) Error() error {
	return nil
}

func (o *outputsIterator) Close() {
	o.kvs = nil
}

// peekIterator用来辅助multiIterator更容易实现
type peekIterator struct {
	next  bool
	key   []byte
	value *Entry

	iter XIterator
}

func newPeekIterator(iter XIterator) *peekIterator {
	p := &peekIterator{
		iter: iter,
	}
	p.fill()
	return p
}

func (p *peekIterator) fill() {
	ok := p.iter.Next()
	if !ok {
		p.next = false
		p.key = nil
		p.value = nil
		return
	}
	p.next = true
	p.key = p.iter.Key()
	p.value = p.iter.Value()
}

func (p *peekIterator) HasNext() bool {
	return p.next
}

func (p *peekIterator) Next() ([]byte, *Entry) {
	if !p.HasNext() {
		return nil, nil
	}
	key := p.key
	value := p.value
	p.fill()
	return key, value
}

// Peek向前查询key, value的值但不移动迭代器的指针
func (p *peekIterator) Peek() ([]byte, *Entry) {
	if !p.HasNext() {
		return nil, nil
	}
	return p.key, p.value
}

func (p *peekIterator) Error() error {
	return p.iter.Error()
}

func (p *peekIterator) Close() {
	p.next = false
	p.key = nil
	p.value = nil
	p.iter.Close()
}

// multiIterator 按照归并排序合并两个XIterator
// 如果两个XIterator在某次迭代返回同样的Key，选取front的Value
type multiIterator struct {
	front *peekIterator
	back  *peekIterator

	key   []byte
	value *Entry
}

func newMultiIterator(front, back XIterator) XIterator {
	return &multiIterator{
		front: newPeekIterator(front),
		back:  newPeekIterator(back),
	}
}

func (m *multiIterator) Key() []byte {
	return m.key
}

func (m *multiIterator) Value() *Entry {
	return m.value
}

func (m *multiIterator) Next() bool {
	if !m.front.HasNext() {
		ok := m.back.HasNext()
		m.key, m.value = m.back.Next()
		return ok
	}
	if !m.back.HasNext() {
		ok := m.front.HasNext()
		m.key, m.value = m.front.Next()
		return ok
	}

	k1, _ := m.front.Peek()
	k2, _ := m.back.Peek()
	switch compareBytes(k1, k2) {
	case 0:
		m.key, m.value = m.front.Next()
		m.back.Next()
	case -1:
		m.key, m.value = m.front.Next()
	case 1:
		m.key, m.value = m.back.Next()
	default:
		panic("unexpected compareBytes return")
	}

	return true
}

func (m *multiIterator) Error() error {
	if err := m.front.Error(); err != nil {
		return err
	}
	return m.back.Error()
}

// Iterator 必须在使用完毕后关闭
func (m *multiIterator) Close() {
	m.front.Close()
	m.back.Close()
}

// stripDelIterator 从迭代器里剔除删除标注
type stripDelIterator struct {
	XIterator
}

func newStripDelIterator(xmiter XIterator) XIterator {
	return &stripDelIterator{
		XIterator: xmiter,
	}
}

func (s *stripDelIterator) Next() bool {
	for s.XIterator.Next() {
		if s.Value().Deleted {
			continue
		}
		return true
	}
	return false
}

// ContractIterator 把XIterator转换成base.Iterator，并去掉bucket前缀
type ContractIterator struct {
	XIterator
	skip int
}

func newContractIterator(xmiter XIterator, skip int) base.Iterator {
	return &ContractIterator{
		XIterator: xmiter,
		skip:      skip,
	}
}

func (c *ContractIterator) Key() []byte {
	k := c.XIterator.Key()
	if len(k) < c.skip {
		return k
	}
	return k[c.skip:]
}

func (c *ContractIterator) Value() []byte {
	v := c.XIterator.Value()
	if v == nil {
		return nil
	}
	return v.Value
}

// compareBytes like bytes.Compare but treats nil as max value
func compareBytes(k1, k2 []byte) int {
	if k1 == nil && k2 == nil {
		return 0
	}
	if k1 == nil {
		return 1
	}
	if k2 == nil {
		return -1
	}
	return bytes.Compare(k1, k2)
}

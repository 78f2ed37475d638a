package workspace

import "github.com/vivimassa/horizon-sub000/internal/rotation"

type opKind int

const (
	opAssign opKind = iota
	opUnassign
)

// pendingOp 本地已生效、等待服务端确认的单个实例写入。
// 同一实例上的新操作覆盖旧操作（后写者胜），被覆盖的操作通过 prev 保留以便回滚。
type pendingOp struct {
	batch uint64
	kind  opKind
	reg   string
	prev  *pendingOp
}

// pendingExclusion 等待确认的例外日期
type pendingExclusion struct {
	batch uint64
}

// pendingSet 待确认操作集合，只在 Workspace 锁内访问
type pendingSet struct {
	ops        map[rotation.OccurrenceKey]*pendingOp
	exclusions map[rotation.OccurrenceKey]pendingExclusion
}

func newPendingSet() *pendingSet {
	return &pendingSet{
		ops:        make(map[rotation.OccurrenceKey]*pendingOp),
		exclusions: make(map[rotation.OccurrenceKey]pendingExclusion),
	}
}

func (p *pendingSet) push(key rotation.OccurrenceKey, op *pendingOp) {
	op.prev = p.ops[key]
	p.ops[key] = op
}

// rollback 撤销某批次的全部操作，返回受影响的实例数
func (p *pendingSet) rollback(batch uint64) int {
	n := 0
	for key, head := range p.ops {
		var kept *pendingOp
		var tail *pendingOp
		for op := head; op != nil; op = op.prev {
			if op.batch == batch {
				n++
				continue
			}
			cp := &pendingOp{batch: op.batch, kind: op.kind, reg: op.reg}
			if kept == nil {
				kept = cp
			} else {
				tail.prev = cp
			}
			tail = cp
		}
		if kept == nil {
			delete(p.ops, key)
		} else {
			p.ops[key] = kept
		}
	}
	for key, ex := range p.exclusions {
		if ex.batch == batch {
			delete(p.exclusions, key)
			n++
		}
	}
	return n
}

// reconcile 按服务端数据退役已确认的操作，只处理 w 内的实例：
//   - 新增：服务端记录与之一致时退役；
//   - 删除：服务端已无记录时退役；
//   - 例外日期：计划已列出该日期时退役。
//
// 窗口外的实例不在本次数据中，其操作保持不变。不一致的待确认操作保留，服务端数据不会静默覆盖它们。
func (p *pendingSet) reconcile(persisted map[rotation.OccurrenceKey]string, patterns map[string]*rotation.Pattern, w rotation.Window) (retired int) {
	for key, op := range p.ops {
		if !w.Contains(key.Date) {
			continue
		}
		reg, has := persisted[key]
		switch op.kind {
		case opAssign:
			if has && reg == op.reg {
				delete(p.ops, key)
				retired++
			}
		case opUnassign:
			if !has {
				delete(p.ops, key)
				retired++
			}
		}
	}
	for key := range p.exclusions {
		if !w.Contains(key.Date) {
			continue
		}
		if pat, ok := patterns[key.PatternID]; ok && pat.Exclusions.Has(key.Date) {
			delete(p.exclusions, key)
			retired++
		}
	}
	return retired
}

// layers 将当前操作投影到解析层
func (p *pendingSet) layers() (adds map[rotation.OccurrenceKey]string, deletes map[rotation.OccurrenceKey]struct{}) {
	adds = make(map[rotation.OccurrenceKey]string)
	deletes = make(map[rotation.OccurrenceKey]struct{})
	for key, op := range p.ops {
		switch op.kind {
		case opAssign:
			adds[key] = op.reg
		case opUnassign:
			deletes[key] = struct{}{}
		}
	}
	return adds, deletes
}

// keySet 实例标识集合
type keySet map[rotation.OccurrenceKey]struct{}

func (p *pendingSet) excluded() keySet {
	out := make(keySet, len(p.exclusions))
	for key := range p.exclusions {
		out[key] = struct{}{}
	}
	return out
}

func (p *pendingSet) size() int { return len(p.ops) + len(p.exclusions) }

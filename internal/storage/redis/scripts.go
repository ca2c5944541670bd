package redis

const (
	// saveResultScript atomically writes a result hash and its time index
	saveResultScript = `
local result_key = KEYS[1]     -- runtracker:result:{id}
local index_key = KEYS[2]      -- runtracker:results

local id = ARGV[1]
local score = ARGV[2]

redis.call('DEL', result_key)
redis.call('HSET', result_key,
  'id', id,
  'started_at', ARGV[3],
  'stopped_at', ARGV[4],
  'distance', ARGV[5],
  'time', ARGV[6],
  'distance_km', ARGV[7],
  'elapsed_ms', ARGV[8],
  'points', ARGV[9],
  'route', ARGV[10]
)
redis.call('ZADD', index_key, score, id)

return 'OK'
`

	// deleteResultsBeforeScript removes every result whose stop time scores
	// below the cutoff and returns how many were removed
	deleteResultsBeforeScript = `
local index_key = KEYS[1]      -- runtracker:results
local prefix = ARGV[1]         -- runtracker:result:
local cutoff = ARGV[2]

local ids = redis.call('ZRANGEBYSCORE', index_key, '-inf', '(' .. cutoff)
for _, id in ipairs(ids) do
  redis.call('DEL', prefix .. id)
  redis.call('ZREM', index_key, id)
end

return #ids
`
)

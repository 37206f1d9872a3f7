package redis

const (
	// upsertGameScript writes a game document and records it in the owner index
	upsertGameScript = `
local game_key = KEYS[1]       -- gameshelf:game:{owner}:{id}
local index_key = KEYS[2]      -- gameshelf:games:{owner}

local game_id = ARGV[1]
local document = ARGV[2]

redis.call('SET', game_key, document)
redis.call('SADD', index_key, game_id)

return 'OK'
`

	// deleteGameScript removes a game and its index entry, returning 0 when absent
	deleteGameScript = `
local game_key = KEYS[1]       -- gameshelf:game:{owner}:{id}
local index_key = KEYS[2]      -- gameshelf:games:{owner}

local game_id = ARGV[1]

local removed = redis.call('DEL', game_key)
redis.call('SREM', index_key, game_id)

return removed
`

	// replaceGamesScript drops every game of an owner and writes the new set.
	// ARGV[1] is the game key prefix, followed by id/document pairs.
	// Returns the number of games that were dropped.
	replaceGamesScript = `
local index_key = KEYS[1]      -- gameshelf:games:{owner}

local prefix = ARGV[1]

local existing = redis.call('SMEMBERS', index_key)
for _, id in ipairs(existing) do
  redis.call('DEL', prefix .. id)
end
redis.call('DEL', index_key)

local i = 2
while i < #ARGV do
  local id = ARGV[i]
  local document = ARGV[i + 1]
  redis.call('SET', prefix .. id, document)
  redis.call('SADD', index_key, id)
  i = i + 2
end

return #existing
`
)
